// Package types holds the result and configuration records shared by
// the engine, the formatter and the CLI.
package types

import "encoding/json"

// Result describes the refinement of one function.
type Result struct {
	Function string `json:"function"`
	Filename string `json:"filename,omitempty"`

	NodesBefore int  `json:"nodes_before"`
	NodesAfter  int  `json:"nodes_after"`
	Sweeps      int  `json:"sweeps"`
	Converged   bool `json:"converged"`

	OracleQueries int `json:"oracle_queries"`
	CacheHits     int `json:"cache_hits"`
	CacheMisses   int `json:"cache_misses"`

	// Source is the refined function rendered as C-like text.
	Source string `json:"source,omitempty"`

	// RefinedAST is the refined function re-encoded in interchange
	// form, present only when requested.
	RefinedAST json.RawMessage `json:"ast,omitempty"`
}

// Reduction reports how much of the tree the run removed, in percent.
func (r Result) Reduction() float64 {
	if r.NodesBefore == 0 {
		return 0
	}
	return 100 * float64(r.NodesBefore-r.NodesAfter) / float64(r.NodesBefore)
}

// ConfigPass is the per-pass switch in the configuration file.
type ConfigPass struct {
	Disabled bool `yaml:"disabled"`
}
