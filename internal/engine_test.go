package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restruct-labs/restruct/internal/oracle"
)

// deadBranchUnit has one function with a contradictory guard around a
// call and a reachable return.
const deadBranchUnit = `{
  "functions": [
    {
      "name": "pick",
      "ret": "i32",
      "params": [{"name": "x", "type": "i32"}],
      "body": {
        "kind": "compound",
        "stmts": [
          {
            "kind": "if",
            "cond": {"kind": "int", "int": 0, "type": "i32"},
            "then": {
              "kind": "compound",
              "stmts": [{"kind": "expr", "x": {"kind": "call", "callee": "sink", "type": "void"}}]
            }
          },
          {"kind": "return", "value": {"kind": "var", "name": "x", "type": "i32"}}
        ]
      }
    }
  ]
}`

func newTestEngine(opts EngineOptions) *Engine {
	return NewEngine(nil, oracle.NewConcreteSession, opts)
}

func TestRunSourceRemovesDeadBranch(t *testing.T) {
	e := newTestEngine(EngineOptions{EmitSource: true, TreeCheck: true})

	results, err := e.RunSource([]byte(deadBranchUnit))
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "pick", res.Function)
	assert.True(t, res.Converged)
	assert.Less(t, res.NodesAfter, res.NodesBefore)
	assert.Greater(t, res.OracleQueries, 0)
	assert.NotContains(t, res.Source, "sink")
	assert.Contains(t, res.Source, "return x;")
}

func TestRunSourceAcceptsBareFunction(t *testing.T) {
	e := newTestEngine(EngineOptions{})

	raw := `{"name": "id", "ret": "i32", "params": [{"name": "x", "type": "i32"}],
	         "body": {"kind": "return", "value": {"kind": "var", "name": "x", "type": "i32"}}}`
	results, err := e.RunSource([]byte(raw))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "id", results[0].Function)
}

func TestRunSourceRejectsMalformedUnit(t *testing.T) {
	e := newTestEngine(EngineOptions{})
	_, err := e.RunSource([]byte(`{"functions": [{"ret": "i32"}]}`))
	require.Error(t, err)
}

func TestDisabledPassSkipsRewrite(t *testing.T) {
	e := newTestEngine(EngineOptions{
		DisabledPasses: []string{"condition-simplify", "dead-stmt"},
		EmitSource:     true,
	})

	results, err := e.RunSource([]byte(deadBranchUnit))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Source, "sink")
}

func TestEmitASTRoundTrips(t *testing.T) {
	e := newTestEngine(EngineOptions{EmitAST: true})

	results, err := e.RunSource([]byte(deadBranchUnit))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].RefinedAST)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(results[0].RefinedAST, &decoded))
	assert.Equal(t, "pick", decoded["name"])
}

func TestRunRecordsFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.ast.json")
	require.NoError(t, os.WriteFile(path, []byte(deadBranchUnit), 0o644))

	e := newTestEngine(EngineOptions{})
	results, err := e.Run(path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].Filename)
}
