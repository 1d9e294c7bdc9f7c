// Package database implements the L1 ClauseDatabase policies: admission and
// selection over collected learned clauses.
package database

import "code.hybscloud.com/distsat/internal/clause"

// Database is the shared contract across the PerSize, BufferPerEntity, and
// Mallob policies.
//
// Invariants all three must uphold:
//   - every clause returned by GiveSelection was previously accepted by
//     AddClause;
//   - the cumulative literal count of a single selection never exceeds the
//     requested budget;
//   - Clear frees every buffered clause;
//   - no clause is yielded twice within the same GiveSelection call.
type Database interface {
	// AddClause admits c according to the policy's rules. Returns false if
	// the clause was dropped (oversized, filtered, or a duplicate).
	AddClause(c *clause.Exchange) bool

	// GiveSelection returns a batch of clauses whose total literal count
	// does not exceed limit. Clauses not selected remain buffered for a
	// future call.
	GiveSelection(limit int) []*clause.Exchange

	// Clear drops every buffered clause.
	Clear()

	// Size returns the number of clauses currently buffered.
	Size() int
}
