// Package transform hosts the rewriting passes and the fixed-point
// pipeline that drives them. Passes mutate one function body in place
// and report whether they changed anything; the pipeline sweeps the
// pass list until a full sweep is quiet. Rewrites only ever remove or
// replace nodes, never duplicate them, so the node count of a body is
// monotonically non-increasing across a run.
package transform
