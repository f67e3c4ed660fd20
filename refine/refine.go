// Package refine is the public entry point: it loads configuration,
// assembles an engine, and drives batch processing of interchange
// files.
package refine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/restruct-labs/restruct/internal"
	"github.com/restruct-labs/restruct/internal/oracle"
	tt "github.com/restruct-labs/restruct/internal/types"
)

// Engine is the subset of the internal engine the batch driver needs.
type Engine interface {
	Run(filePath string) ([]tt.Result, error)
	RunSource(source []byte) ([]tt.Result, error)
}

// Config is the on-disk configuration.
type Config struct {
	Name     string                   `yaml:"name"`
	Oracle   OracleConfig             `yaml:"oracle"`
	Pipeline PipelineConfig           `yaml:"pipeline"`
	Output   OutputConfig             `yaml:"output"`
	Passes   map[string]tt.ConfigPass `yaml:"passes"`
}

// OracleConfig selects and bounds the prover backend.
type OracleConfig struct {
	// Backend is "z3" or "concrete".
	Backend   string `yaml:"backend"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// PipelineConfig bounds the fixed-point driver.
type PipelineConfig struct {
	MaxSweeps int  `yaml:"max_sweeps"`
	TreeCheck bool `yaml:"tree_check"`
}

// OutputConfig selects what each result carries.
type OutputConfig struct {
	Source bool `yaml:"source"`
	AST    bool `yaml:"ast"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Oracle: OracleConfig{Backend: "z3", TimeoutMS: 500},
		Output: OutputConfig{Source: true},
	}
}

// New builds an engine from the configuration file at
// configurationPath; an empty path means defaults.
func New(logger *zap.Logger, configurationPath string) (*internal.Engine, error) {
	config, err := parseConfigurationFile(configurationPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(logger, config)
}

// NewFromConfig builds an engine from an in-memory configuration.
func NewFromConfig(logger *zap.Logger, config Config) (*internal.Engine, error) {
	factory, err := oracleFactory(config.Oracle.Backend)
	if err != nil {
		return nil, err
	}
	var disabled []string
	for name, pass := range config.Passes {
		if pass.Disabled {
			disabled = append(disabled, name)
		}
	}
	return internal.NewEngine(logger, factory, internal.EngineOptions{
		Oracle:         oracle.Options{Timeout: time.Duration(config.Oracle.TimeoutMS) * time.Millisecond},
		MaxSweeps:      config.Pipeline.MaxSweeps,
		TreeCheck:      config.Pipeline.TreeCheck,
		DisabledPasses: disabled,
		EmitSource:     config.Output.Source,
		EmitAST:        config.Output.AST,
	}), nil
}

func oracleFactory(backend string) (oracle.Factory, error) {
	switch backend {
	case "", "z3":
		return oracle.NewZ3Session, nil
	case "concrete":
		return oracle.NewConcreteSession, nil
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", backend)
	}
}

func parseConfigurationFile(configurationPath string) (Config, error) {
	config := DefaultConfig()
	if configurationPath == "" {
		return config, nil
	}
	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// ProcessFiles refines every interchange file reachable from paths.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	processor func(Engine, string) ([]tt.Result, error),
) ([]tt.Result, error) {
	runID := uuid.NewString()
	if logger != nil {
		logger.Info("starting batch", zap.String("run_id", runID), zap.Int("paths", len(paths)))
	}
	var allResults []tt.Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("error processing path", zap.String("run_id", runID), zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allResults = append(allResults, results...)
	}
	return allResults, nil
}

// ProcessPath refines one file, or every interchange file under one
// directory using a bounded worker pool.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	processor func(Engine, string) ([]tt.Result, error),
) ([]tt.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		if !hasInterchangeExtension(path) {
			return nil, fmt.Errorf("%s is not an interchange file", path)
		}
		return processor(engine, path)
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && hasInterchangeExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}

	type outcome struct {
		results []tt.Result
		err     error
	}
	outcomes := make(chan outcome, len(files))
	sem := make(chan struct{}, runtime.NumCPU())

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(path),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			sem <- struct{}{}
			go func(fp string) {
				defer func() { <-sem }()
				results, err := processor(engine, fp)
				_ = bar.Add(1)
				outcomes <- outcome{results: results, err: err}
			}(filePath)
		}
	}

	var results []tt.Result
	for range files {
		out := <-outcomes
		if out.err != nil {
			if logger != nil {
				logger.Error("error processing file", zap.Error(out.err))
			}
			continue
		}
		results = append(results, out.results...)
	}
	return results, nil
}

// ProcessFile refines a single file.
func ProcessFile(engine Engine, filePath string) ([]tt.Result, error) {
	return engine.Run(filePath)
}

// ProcessFileCached checks the outcome cache before refining.
func ProcessFileCached(cache *internal.Cache) func(Engine, string) ([]tt.Result, error) {
	return func(engine Engine, filePath string) ([]tt.Result, error) {
		if results, ok := cache.Get(filePath); ok {
			return results, nil
		}
		results, err := engine.Run(filePath)
		if err != nil {
			return nil, err
		}
		if err := cache.Set(filePath, results); err != nil {
			return nil, err
		}
		return results, nil
	}
}

// ProcessSource refines an in-memory unit.
func ProcessSource(engine Engine, source []byte) ([]tt.Result, error) {
	return engine.RunSource(source)
}

func hasInterchangeExtension(path string) bool {
	return strings.HasSuffix(path, ".ast.json")
}
