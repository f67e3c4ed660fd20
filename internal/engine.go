package internal

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/oracle"
	"github.com/restruct-labs/restruct/internal/printer"
	"github.com/restruct-labs/restruct/internal/provenance"
	"github.com/restruct-labs/restruct/internal/transform"
	tt "github.com/restruct-labs/restruct/internal/types"
)

// EngineOptions configures a refinement engine.
type EngineOptions struct {
	Oracle    oracle.Options
	MaxSweeps int
	TreeCheck bool

	// DisabledPasses names passes excluded from the pipeline.
	DisabledPasses []string

	// EmitSource renders each refined function as C-like text into
	// the result.
	EmitSource bool

	// EmitAST attaches the refined interchange JSON to each result.
	EmitAST bool
}

// Engine drives the refinement of interchange files. Every function
// gets its own builder, provenance table, oracle session and pass
// pipeline; nothing is shared between functions, so one engine may
// serve concurrent workers.
type Engine struct {
	logger   *zap.Logger
	factory  oracle.Factory
	opts     EngineOptions
	disabled map[string]bool

	watcher *watcher
}

// NewEngine builds an engine around an oracle factory.
func NewEngine(logger *zap.Logger, factory oracle.Factory, opts EngineOptions) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	disabled := make(map[string]bool, len(opts.DisabledPasses))
	for _, name := range opts.DisabledPasses {
		disabled[name] = true
	}
	return &Engine{logger: logger, factory: factory, opts: opts, disabled: disabled}
}

// unitFile is the on-disk interchange unit: one or more functions.
type unitFile struct {
	Functions []json.RawMessage `json:"functions"`
}

// splitUnit accepts either a unit object or a bare function object.
func splitUnit(source []byte) ([]json.RawMessage, error) {
	var unit unitFile
	if err := json.Unmarshal(source, &unit); err != nil {
		return nil, fmt.Errorf("parsing unit: %w", err)
	}
	if len(unit.Functions) > 0 {
		return unit.Functions, nil
	}
	return []json.RawMessage{source}, nil
}

// Run refines every function in the file at filePath.
func (e *Engine) Run(filePath string) ([]tt.Result, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	results, err := e.RunSource(source)
	if err != nil {
		return nil, fmt.Errorf("refining %s: %w", filePath, err)
	}
	for i := range results {
		results[i].Filename = filePath
	}
	return results, nil
}

// RunSource refines every function in an in-memory unit.
func (e *Engine) RunSource(source []byte) ([]tt.Result, error) {
	raws, err := splitUnit(source)
	if err != nil {
		return nil, err
	}
	results := make([]tt.Result, 0, len(raws))
	for _, raw := range raws {
		res, err := e.refineRaw(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) refineRaw(raw json.RawMessage) (tt.Result, error) {
	b := cast.NewBuilder()
	fn, refs, err := cast.DecodeFunctionRefs(b, raw)
	if err != nil {
		return tt.Result{}, err
	}
	prov := provenance.NewMap()
	if err := prov.Resolve(refs); err != nil {
		return tt.Result{}, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	return e.RefineFunction(fn, b, prov)
}

// RefineFunction runs the pipeline over one decoded function, mutating
// it in place and reporting what happened.
func (e *Engine) RefineFunction(fn *cast.Function, b *cast.Builder, prov *provenance.Map) (tt.Result, error) {
	sess, err := e.factory(e.opts.Oracle)
	if err != nil {
		return tt.Result{}, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	defer sess.Close()

	simplify := transform.NewCondSimplify(b, prov, sess, e.logger)
	var passes []transform.Pass
	for _, pass := range []transform.Pass{
		simplify,
		transform.NewConstFold(b),
		transform.NewDeadStmt(b),
		transform.NewFlatten(),
	} {
		if !e.disabled[pass.Name()] {
			passes = append(passes, pass)
		}
	}

	var pipeOpts []transform.PipelineOption
	if e.opts.MaxSweeps > 0 {
		pipeOpts = append(pipeOpts, transform.WithMaxSweeps(e.opts.MaxSweeps))
	}
	if e.opts.TreeCheck {
		pipeOpts = append(pipeOpts, transform.WithTreeCheck())
	}

	before := cast.CountNodes(fn)
	report, err := transform.NewPipeline(e.logger, passes, pipeOpts...).RunToFixpoint(fn)
	if err != nil {
		return tt.Result{}, err
	}

	stats := simplify.Stats()
	result := tt.Result{
		Function:      fn.Name,
		NodesBefore:   before,
		NodesAfter:    cast.CountNodes(fn),
		Sweeps:        report.Sweeps,
		Converged:     report.Converged,
		OracleQueries: stats.OracleQueries,
		CacheHits:     stats.Cache.Hits,
		CacheMisses:   stats.Cache.Misses,
	}
	if e.opts.EmitSource {
		result.Source = printer.Format(fn)
	}
	if e.opts.EmitAST {
		ast, err := cast.EncodeFunctionRefs(fn, prov.Refs())
		if err != nil {
			return tt.Result{}, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		result.RefinedAST = ast
	}
	return result, nil
}
