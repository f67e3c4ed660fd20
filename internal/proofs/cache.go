// Package proofs memoizes oracle verdicts about guard expressions so
// one pipeline sweep never pays for the same expensive query twice.
//
// Entries are keyed by node instance. Lookup buckets by the memoized
// structural hash, then matches by identity, and only on a genuine
// hash collision between different instances falls back to the
// injected oracle-backed equivalence predicate. Two structurally
// distinct but semantically identical instances therefore usually
// cache independently. That inefficiency is tolerated; conflating
// unrelated contexts through content equality would be a correctness
// bug.
//
// A cache lives for one simplifier sweep over one function body. It
// must be Reset whenever a different pass mutates the tree, and
// entries for any replaced node must be dropped with Forget before the
// node's identity goes out of scope.
package proofs

import "github.com/restruct-labs/restruct/internal/cast"

// Equivalence is the oracle-backed semantic equality predicate,
// consulted only when two distinct instances land in one hash bucket.
type Equivalence func(a, b cast.Expr) (bool, error)

type entry struct {
	node cast.Expr
	val  bool
}

// Stats counts cache traffic for the batch report.
type Stats struct {
	Hits   int
	Misses int
	Stores int
}

// Cache holds the proven-true and proven-false tables.
type Cache struct {
	equiv       Equivalence
	provenTrue  map[uint64][]entry
	provenFalse map[uint64][]entry
	stats       Stats
}

// New builds an empty cache around the given equivalence predicate.
func New(equiv Equivalence) *Cache {
	c := &Cache{equiv: equiv}
	c.Reset()
	return c
}

// Reset drops every entry. Stats survive; they describe the whole run.
func (c *Cache) Reset() {
	c.provenTrue = make(map[uint64][]entry)
	c.provenFalse = make(map[uint64][]entry)
}

// Stats returns the traffic counters so far.
func (c *Cache) Stats() Stats { return c.stats }

func (c *Cache) lookup(table map[uint64][]entry, e cast.Expr) (val, hit bool, err error) {
	bucket := table[cast.HashExpr(e)]
	for _, ent := range bucket {
		if ent.node == e {
			c.stats.Hits++
			return ent.val, true, nil
		}
	}
	for _, ent := range bucket {
		same, err := c.equiv(ent.node, e)
		if err != nil {
			return false, false, err
		}
		if same {
			c.stats.Hits++
			return ent.val, true, nil
		}
	}
	c.stats.Misses++
	return false, false, nil
}

func (c *Cache) store(table map[uint64][]entry, e cast.Expr, val bool) {
	h := cast.HashExpr(e)
	table[h] = append(table[h], entry{node: e, val: val})
	c.stats.Stores++
}

// LookupTrue consults the proven-true table for e.
func (c *Cache) LookupTrue(e cast.Expr) (val, hit bool, err error) {
	return c.lookup(c.provenTrue, e)
}

// StoreTrue records whether e was proven a tautology.
func (c *Cache) StoreTrue(e cast.Expr, val bool) {
	c.store(c.provenTrue, e, val)
}

// LookupFalse consults the proven-false table for e.
func (c *Cache) LookupFalse(e cast.Expr) (val, hit bool, err error) {
	return c.lookup(c.provenFalse, e)
}

// StoreFalse records whether e was proven a contradiction.
func (c *Cache) StoreFalse(e cast.Expr, val bool) {
	c.store(c.provenFalse, e, val)
}

// Forget drops the entries keyed by e or any expression below it.
// Every rewrite that replaces or removes a node must call this before
// splicing; identities of dropped subtrees may be reused by the
// builder and must not collide with stale entries.
func (c *Cache) Forget(e cast.Expr) {
	cast.WalkExpr(e, func(sub cast.Expr) {
		c.forgetOne(c.provenTrue, sub)
		c.forgetOne(c.provenFalse, sub)
	})
}

func (c *Cache) forgetOne(table map[uint64][]entry, e cast.Expr) {
	h := cast.HashExpr(e)
	bucket := table[h]
	kept := bucket[:0]
	for _, ent := range bucket {
		if ent.node != e {
			kept = append(kept, ent)
		}
	}
	if len(kept) == 0 {
		delete(table, h)
	} else {
		table[h] = kept
	}
}
