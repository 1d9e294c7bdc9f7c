package database

import "code.hybscloud.com/distsat/internal/clause"

// PerSize buckets clauses by literal count into maxClauseSize+1 sub-buffers
// and selects short clauses first — short learned clauses are more valuable
// to a CDCL engine than long ones.
type PerSize struct {
	maxClauseSize int
	buckets       []*clause.Buffer // index 0 unused; index i holds size-i clauses
}

// NewPerSize creates a PerSize database that rejects clauses larger than
// maxClauseSize.
func NewPerSize(maxClauseSize int) *PerSize {
	p := &PerSize{
		maxClauseSize: maxClauseSize,
		buckets:       make([]*clause.Buffer, maxClauseSize+1),
	}
	for i := 1; i <= maxClauseSize; i++ {
		p.buckets[i] = clause.NewBuffer(maxClauseSize)
	}
	return p
}

// AddClause dispatches c to its size bucket in O(1).
func (p *PerSize) AddClause(c *clause.Exchange) bool {
	size := c.Size()
	if size < 1 || size > p.maxClauseSize {
		return false
	}
	return p.buckets[size].AddClause(c)
}

// GiveSelection walks buckets from size 1 upward, appending clauses while
// the running literal total stays within limit. Undrained leftovers are
// re-buffered so they survive to the next call — selection is destructive
// only up to the budget.
func (p *PerSize) GiveSelection(limit int) []*clause.Exchange {
	remaining := limit
	var out []*clause.Exchange

	for size := 1; size <= p.maxClauseSize; size++ {
		if remaining < size {
			continue
		}
		bucket := p.buckets[size]
		drained := bucket.GetClauses()

		i := 0
		for ; i < len(drained) && remaining >= size; i++ {
			out = append(out, drained[i])
			remaining -= size
		}
		// Leftovers go back for the next tick.
		for ; i < len(drained); i++ {
			bucket.AddClause(drained[i])
		}
	}
	return out
}

// Clear drops every buffered clause across all size buckets.
func (p *PerSize) Clear() {
	for _, b := range p.buckets {
		if b != nil {
			b.Clear()
		}
	}
}

// Size returns the total number of buffered clauses across all buckets.
func (p *PerSize) Size() int {
	total := 0
	for _, b := range p.buckets {
		if b != nil {
			total += b.Size()
		}
	}
	return total
}
