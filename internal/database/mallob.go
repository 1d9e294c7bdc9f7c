package database

import (
	"sync"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/lfq"
)

const mallobCellCapacity = 64

// Mallob buckets clauses into a [size][lbd] grid of small fixed-capacity
// ring cells and deduplicates by literal-set fingerprint, mirroring the
// Mallob clause-sharing scheme: cheap admission, bounded memory, oldest
// entries evicted first once a cell or the dedup set fills up.
type Mallob struct {
	maxSize int
	maxLBD  int

	mu   sync.Mutex
	grid [][]*lfq.MPSC[*clause.Exchange]

	dedup      map[uint64]struct{}
	dedupOrder []uint64
	dedupCap   int
}

// NewMallob creates a Mallob database admitting clauses with size in
// [1, maxSize] and lbd in [1, maxLBD]. dedupCap bounds the fingerprint set;
// once full, the oldest fingerprint is evicted to admit a new one.
func NewMallob(maxSize, maxLBD, dedupCap int) *Mallob {
	m := &Mallob{
		maxSize:  maxSize,
		maxLBD:   maxLBD,
		dedup:    make(map[uint64]struct{}, dedupCap),
		dedupCap: dedupCap,
	}
	m.grid = make([][]*lfq.MPSC[*clause.Exchange], maxSize+1)
	for s := 1; s <= maxSize; s++ {
		row := make([]*lfq.MPSC[*clause.Exchange], maxLBD+1)
		for l := 1; l <= maxLBD; l++ {
			row[l] = lfq.NewMPSC[*clause.Exchange](mallobCellCapacity)
		}
		m.grid[s] = row
	}
	return m
}

// AddClause drops oversized, over-LBD, or duplicate clauses; otherwise
// inserts into grid[size][lbd], evicting the cell's oldest entry on
// overflow.
func (m *Mallob) AddClause(c *clause.Exchange) bool {
	size, lbd := c.Size(), int(c.LBD())
	if size < 1 || size > m.maxSize || lbd < 1 || lbd > m.maxLBD {
		return false
	}
	fp := c.FingerprintHash()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.dedup[fp]; dup {
		return false
	}

	cell := m.grid[size][lbd]
	for {
		if err := cell.Enqueue(&c); err == nil {
			break
		}
		// Cell full: evict the oldest entry and retry.
		if _, err := cell.Dequeue(); err != nil {
			// Nothing could be evicted (m.mu rules out a concurrent
			// drain); just retry the Enqueue.
			continue
		}
	}

	m.admitFingerprint(fp)
	return true
}

func (m *Mallob) admitFingerprint(fp uint64) {
	if len(m.dedupOrder) >= m.dedupCap {
		oldest := m.dedupOrder[0]
		m.dedupOrder = m.dedupOrder[1:]
		delete(m.dedup, oldest)
	}
	m.dedup[fp] = struct{}{}
	m.dedupOrder = append(m.dedupOrder, fp)
}

// GiveSelection visits cells in lexicographic (size, lbd) order and accepts
// clauses while the literal budget allows.
func (m *Mallob) GiveSelection(limit int) []*clause.Exchange {
	return m.GiveSelectionFiltered(limit, 0, 0)
}

// GiveSelectionFiltered is the per-call tighter variant from spec.md §4.5:
// filterMaxSize/filterMaxLBD of 0 fall back to the construction-time limits.
func (m *Mallob) GiveSelectionFiltered(limit, filterMaxSize, filterMaxLBD int) []*clause.Exchange {
	if filterMaxSize <= 0 || filterMaxSize > m.maxSize {
		filterMaxSize = m.maxSize
	}
	if filterMaxLBD <= 0 || filterMaxLBD > m.maxLBD {
		filterMaxLBD = m.maxLBD
	}

	remaining := limit
	var out []*clause.Exchange

	m.mu.Lock()
	defer m.mu.Unlock()

	for size := 1; size <= filterMaxSize; size++ {
		if remaining < size {
			continue
		}
		for lbd := 1; lbd <= filterMaxLBD; lbd++ {
			cell := m.grid[size][lbd]
			var leftover []*clause.Exchange
			for {
				c, err := cell.Dequeue()
				if err != nil {
					break
				}
				if remaining >= size {
					out = append(out, c)
					remaining -= size
				} else {
					leftover = append(leftover, c)
				}
			}
			for _, c := range leftover {
				_ = cell.Enqueue(&c)
			}
		}
	}
	return out
}

// Clear drops every buffered clause and forgets every fingerprint.
func (m *Mallob) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for size := 1; size <= m.maxSize; size++ {
		for lbd := 1; lbd <= m.maxLBD; lbd++ {
			for {
				if _, err := m.grid[size][lbd].Dequeue(); err != nil {
					break
				}
			}
		}
	}
	m.dedup = make(map[uint64]struct{}, m.dedupCap)
	m.dedupOrder = nil
}

// Size returns the number of distinct fingerprints currently tracked. The
// fingerprint set and the per-cell rings are independently bounded (by
// dedupCap and mallobCellCapacity respectively), so this is neither an exact
// count nor a bound of the clauses sitting in the grid: a cell eviction
// leaves its fingerprint counted, and a fingerprint eviction leaves its
// clause in the grid uncounted.
func (m *Mallob) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dedup)
}
