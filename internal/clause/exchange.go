// Package clause implements the L0/L1 data path: the learned-clause payload
// type and the per-producer buffer that collects it.
package clause

import (
	"sort"

	"code.hybscloud.com/atomix"
)

// idGenerator assigns monotonically increasing clause ids for dedup.
var idGenerator atomix.Uint64

// Exchange is a reference-counted, immutable-once-published learned clause.
//
// An Exchange is allocated once by its producer and shared by pointer with
// every consumer that imports it; it is never mutated after construction.
// Literals are unique up to sign — a strategy that needs a sorted view for
// hashing sorts a local copy rather than the clause's own slice, so the
// clause remains safe to share across goroutines without synchronization.
type Exchange struct {
	literals []int32
	lbd      uint32
	from     uint32
	id       uint64
	refs     atomix.Int32
}

// New constructs a clause from literals and an LBD score. Panics if literals
// is empty — a clause must have at least one literal.
func New(literals []int32, lbd uint32, from uint32) *Exchange {
	if len(literals) == 0 {
		panic("clause: size must be >= 1")
	}
	if lbd < 1 {
		lbd = 1
	}
	if int(lbd) > len(literals) {
		lbd = uint32(len(literals))
	}
	lits := make([]int32, len(literals))
	copy(lits, literals)
	e := &Exchange{
		literals: lits,
		lbd:      lbd,
		from:     from,
		id:       idGenerator.AddAcqRel(1),
	}
	e.refs.StoreRelease(1)
	return e
}

// Literals returns the clause's literal slice. Callers must not mutate it.
func (e *Exchange) Literals() []int32 { return e.literals }

// Size returns the number of literals in the clause.
func (e *Exchange) Size() int { return len(e.literals) }

// LBD returns the clause's Literal Block Distance score.
func (e *Exchange) LBD() uint32 { return e.lbd }

// From returns the producing entity's id; 0 means external/global origin.
func (e *Exchange) From() uint32 { return e.from }

// ID returns the clause's monotonic id, used for dedup bookkeeping.
func (e *Exchange) ID() uint64 { return e.id }

// Retain increments the reference count. Call before handing the clause to
// another goroutine that will independently Release it.
func (e *Exchange) Retain() {
	e.refs.AddAcqRel(1)
}

// Release decrements the reference count. Exchange has no backing resource
// beyond the Go-GC-managed literal slice, so a count reaching zero is not a
// free — it's a caller-visible signal that nothing should still be holding
// the clause, useful for catching use-after-release bugs in tests.
func (e *Exchange) Release() int32 {
	return e.refs.AddAcqRel(-1)
}

// RefCount returns the current reference count.
func (e *Exchange) RefCount() int32 {
	return e.refs.LoadAcquire()
}

// sortedLiterals returns a sorted copy of the clause's literals.
func (e *Exchange) sortedLiterals() []int32 {
	cp := make([]int32, len(e.literals))
	copy(cp, e.literals)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return cp
}

// Equal reports whether two clauses contain the same literal multiset,
// ignoring order, LBD, and provenance.
func (e *Exchange) Equal(o *Exchange) bool {
	if o == nil || len(e.literals) != len(o.literals) {
		return false
	}
	a, b := e.sortedLiterals(), o.sortedLiterals()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FingerprintHash is a 64-bit, order-independent hash over the clause's
// literals, used by Mallob-style databases to deduplicate clauses that
// arrive with different literal orderings. Commutative combination (xor of
// a per-literal mix) means insertion order never affects the result.
func (e *Exchange) FingerprintHash() uint64 {
	var h uint64
	for _, lit := range e.literals {
		h ^= splitmix64(uint64(uint32(lit)) + 0x9E3779B97F4A7C15)
	}
	return splitmix64(h)
}

// splitmix64 is a fast, well-mixed 64-bit hash step.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return x
}
