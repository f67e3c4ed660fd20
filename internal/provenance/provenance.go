// Package provenance maintains the side table associating tree nodes
// with the IR values they were translated from. The table is populated
// once by the upstream AST builder and is read-only for every
// transform pass; the single exception is Inherit, which lets a pass
// record that a cloned node replicates the use of an existing one.
package provenance

import (
	"fmt"

	"github.com/restruct-labs/restruct/internal/cast"
	"github.com/restruct-labs/restruct/internal/ir"
)

// Map associates node identities with IR value references. Many nodes
// may map to one value (replicated uses); a node with no entry has no
// known origin.
type Map struct {
	entries map[cast.NodeID]ir.ValueRef
}

// NewMap returns an empty provenance table.
func NewMap() *Map {
	return &Map{entries: make(map[cast.NodeID]ir.ValueRef)}
}

// Record is called by the builder while translating IR; transform
// passes must not call it.
func (m *Map) Record(n cast.Node, ref ir.ValueRef) {
	m.entries[n.ID()] = ref
}

// Lookup returns the IR value n was produced from, if known.
func (m *Map) Lookup(n cast.Node) (ir.ValueRef, bool) {
	ref, ok := m.entries[n.ID()]
	return ref, ok
}

// SameOrigin reports whether a and b were both produced from the same
// IR value. Nodes with unknown origin never share.
func (m *Map) SameOrigin(a, b cast.Node) bool {
	ra, ok := m.Lookup(a)
	if !ok {
		return false
	}
	rb, ok := m.Lookup(b)
	return ok && ra == rb
}

// Inherit records that clone replicates the use of orig: the clone
// maps to the same IR value. No-op when orig has no entry.
func (m *Map) Inherit(orig, clone cast.Node) {
	if ref, ok := m.Lookup(orig); ok {
		m.entries[clone.ID()] = ref
	}
}

// InheritExpr applies Inherit pairwise over two structurally equal
// expression trees, so a deep clone keeps per-subterm origins.
func (m *Map) InheritExpr(orig, clone cast.Expr) {
	var origs, clones []cast.Expr
	cast.WalkExpr(orig, func(e cast.Expr) { origs = append(origs, e) })
	cast.WalkExpr(clone, func(e cast.Expr) { clones = append(clones, e) })
	if len(origs) != len(clones) {
		return
	}
	for i := range origs {
		m.Inherit(origs[i], clones[i])
	}
}

// Len returns the number of recorded entries.
func (m *Map) Len() int { return len(m.entries) }

// Resolve fills the map from the textual references a decoded
// function carries, keyed by node identity. Malformed references are
// reported with their node.
func (m *Map) Resolve(refs map[cast.NodeID]string) error {
	for id, s := range refs {
		ref, err := ir.ParseRef(s)
		if err != nil {
			return fmt.Errorf("node %d: %w", id, err)
		}
		m.entries[id] = ref
	}
	return nil
}

// Refs renders the map back into textual form for re-encoding.
func (m *Map) Refs() map[cast.NodeID]string {
	out := make(map[cast.NodeID]string, len(m.entries))
	for id, ref := range m.entries {
		out[id] = ref.String()
	}
	return out
}
