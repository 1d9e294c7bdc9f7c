package database

import (
	"sync"

	"code.hybscloud.com/distsat/internal/clause"
)

// BufferPerEntity shards clauses by producer entity id, one clause.Buffer
// per producer, behind a reader-writer lock that lets concurrent producers
// proceed in parallel and serializes only on creating a new shard.
type BufferPerEntity struct {
	maxClauseSize int

	mu     sync.RWMutex
	shards map[uint32]*clause.Buffer
}

// NewBufferPerEntity creates an empty BufferPerEntity database.
func NewBufferPerEntity(maxClauseSize int) *BufferPerEntity {
	return &BufferPerEntity{
		maxClauseSize: maxClauseSize,
		shards:        make(map[uint32]*clause.Buffer),
	}
}

// AddClause looks up (or double-checked-lock creates) c.From()'s shard and
// forwards to it. The write lock is only ever taken to install a missing
// shard, never to run the enqueue itself.
func (d *BufferPerEntity) AddClause(c *clause.Exchange) bool {
	entityID := c.From()

	d.mu.RLock()
	shard, ok := d.shards[entityID]
	d.mu.RUnlock()

	if !ok {
		d.mu.Lock()
		// Re-check: another goroutine may have created the shard while we
		// were waiting for the exclusive lock.
		shard, ok = d.shards[entityID]
		if !ok {
			shard = clause.NewBuffer(d.maxClauseSize)
			d.shards[entityID] = shard
		}
		d.mu.Unlock()
	}

	return shard.AddClause(c)
}

// GiveSelection drains every shard into a transient PerSize database under
// the shared (read) lock only — bounding critical-section time to buffer
// drains, never to the selection policy itself or to solver import — then
// delegates selection to it.
func (d *BufferPerEntity) GiveSelection(limit int) []*clause.Exchange {
	tmp := NewPerSize(d.maxClauseSize)

	d.mu.RLock()
	for _, shard := range d.shards {
		for _, c := range shard.GetClauses() {
			tmp.AddClause(c)
		}
	}
	d.mu.RUnlock()

	selection := tmp.GiveSelection(limit)
	// Clauses the budget did not admit go back to their producers' shards.
	for _, c := range tmp.GiveSelection(int(^uint(0) >> 1)) {
		d.AddClause(c)
	}
	return selection
}

// Clear empties every shard without removing the shards themselves.
func (d *BufferPerEntity) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, shard := range d.shards {
		shard.Clear()
	}
}

// Size returns the sum of every shard's buffered clause count.
func (d *BufferPerEntity) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, shard := range d.shards {
		total += shard.Size()
	}
	return total
}

// ShardCount reports how many distinct producer shards currently exist.
// Exposed for tests asserting concurrent shard-creation behavior.
func (d *BufferPerEntity) ShardCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.shards)
}
