// Package cast defines the structured, goto-free statement and
// expression tree the refinement pipeline operates on.
//
// The vocabulary is a small C-like language: compound, if, while,
// do-while, break, return, declaration and expression statements, over
// expressions built from literals, variable references, unary/binary
// operators, casts, member/array accesses, calls and ternaries. Node
// categories are closed sum types; every pass dispatches with an
// exhaustive type switch.
//
// Ownership is strict tree ownership. Each node instance appears in
// exactly one place; rewrites that need the same expression twice must
// clone it (CloneExpr) so the new occurrence gets its own identity.
// Identities (NodeID) are assigned at creation by a per-function
// Builder and are the keys of both the provenance side table and the
// proof cache.
package cast
