// Package internal wires the refinement core together: it decodes
// interchange files into function trees, assembles the pass pipeline
// around a per-function oracle session, and reports per-function
// results.
//
// Key components:
//
// Engine: coordinates one refinement run. Every function gets its own
// node builder, provenance table and oracle session; engines are safe
// for concurrent workers because nothing per-function is shared.
//
// Cache: persists per-file outcomes between runs keyed by content
// hash, so watch mode and repeated batch runs skip unchanged files.
//
// The watcher re-refines interchange files as they change on disk.
package internal
