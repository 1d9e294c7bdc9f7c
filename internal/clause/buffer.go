package clause

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/distsat/internal/lfq"
)

// defaultSegmentCap is the capacity of the first segment created by a fresh
// Buffer. Segments double in capacity each time the current one fills, so a
// producer burst only pays the segment-roll cost O(log n) times.
const defaultSegmentCap = 256

// maxSegmentCap bounds how large a single segment is allowed to grow; past
// this, rolling keeps allocating same-size segments instead of doubling
// forever.
const maxSegmentCap = 1 << 16

// Buffer is an unbounded, lock-light multi-producer single-consumer queue of
// *Exchange handles.
//
// Internally it chains fixed-capacity lfq.MPSC segments: AddClause holds a
// short-lived mutex while it Enqueues onto the current segment and, on the
// rare path where that segment is full, seals it and rolls a fresh larger
// one, so producers are serialized by the mutex. This is what
// makes the buffer effectively unbounded while reusing a bounded lock-free
// queue underneath, instead of re-deriving a linked-list lock-free queue
// from scratch.
type Buffer struct {
	maxClauseSize int

	mu      sync.Mutex
	cur     *lfq.MPSC[*Exchange]
	curCap  int
	sealed  []*lfq.MPSC[*Exchange]
	count   atomix.Int64
}

// NewBuffer creates a Buffer that rejects any clause with more than
// maxClauseSize literals.
func NewBuffer(maxClauseSize int) *Buffer {
	return &Buffer{
		maxClauseSize: maxClauseSize,
		cur:           lfq.NewMPSC[*Exchange](defaultSegmentCap),
		curCap:        defaultSegmentCap,
	}
}

// AddClause enqueues c. Returns false without storing c if c.Size() exceeds
// the buffer's maxClauseSize — the only failure mode; AddClause never
// blocks and never fails for any other reason.
func (b *Buffer) AddClause(c *Exchange) bool {
	if c.Size() > b.maxClauseSize {
		return false
	}

	b.mu.Lock()
	for b.cur.Enqueue(&c) != nil {
		// Current segment is full: seal it for draining and roll a fresh,
		// larger one so producers never see backpressure from AddClause.
		b.cur.Drain()
		b.sealed = append(b.sealed, b.cur)
		nextCap := b.curCap * 2
		if nextCap > maxSegmentCap {
			nextCap = maxSegmentCap
		}
		b.cur = lfq.NewMPSC[*Exchange](nextCap)
		b.curCap = nextCap
	}
	b.mu.Unlock()

	b.count.AddAcqRel(1)
	return true
}

// GetClause dequeues one clause if any is available. Single-consumer only.
func (b *Buffer) GetClause() (*Exchange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.sealed) > 0 {
		seg := b.sealed[0]
		if c, err := seg.Dequeue(); err == nil {
			b.count.AddAcqRel(-1)
			return c, true
		}
		b.sealed = b.sealed[1:]
	}
	if c, err := b.cur.Dequeue(); err == nil {
		b.count.AddAcqRel(-1)
		return c, true
	}
	return nil, false
}

// GetClauses atomically steals the buffer's current contents into a freshly
// allocated slice. After it returns, the buffer appears empty to any
// subsequent producer — single-consumer semantics, as with GetClause.
func (b *Buffer) GetClauses() []*Exchange {
	b.mu.Lock()
	sealed := b.sealed
	cur := b.cur
	b.sealed = nil
	b.cur = lfq.NewMPSC[*Exchange](defaultSegmentCap)
	b.curCap = defaultSegmentCap
	b.mu.Unlock()

	out := make([]*Exchange, 0, b.count.LoadAcquire())
	for _, seg := range sealed {
		out = drainSegment(seg, out)
	}
	cur.Drain()
	out = drainSegment(cur, out)

	b.count.AddAcqRel(-int64(len(out)))
	return out
}

func drainSegment(seg *lfq.MPSC[*Exchange], out []*Exchange) []*Exchange {
	for {
		c, err := seg.Dequeue()
		if err != nil {
			return out
		}
		out = append(out, c)
	}
}

// Clear drops every buffered clause.
func (b *Buffer) Clear() {
	b.GetClauses()
}

// Size returns the approximate number of clauses currently buffered.
func (b *Buffer) Size() int {
	return int(b.count.LoadAcquire())
}
