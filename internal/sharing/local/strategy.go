// Package local implements the L3 local sharing strategies from spec.md
// §4.6: per-tick gather→select→deliver→adapt→stats over one node's
// producers and consumers.
package local

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/database"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
)

// Strategy is the L3 local sharing contract: a single tick of the
// gather→select→deliver cycle.
type Strategy interface {
	DoSharing(ctx context.Context) error
}

// Engine is the subset of solver.Interface a local strategy needs: enough
// to import a selection, accept an adapted LBD limit, and register an
// export callback. Kept as a local interface (rather than importing
// internal/solver) so this package never depends on engine construction.
type Engine interface {
	AddClauses(cs []*clause.Exchange) error
	OnExportClause(func(*clause.Exchange))
	SetLbdLimit(limit float64)
}

// producer tracks one engine's per-tick export buffer and its current LBD
// admission limit (adapted by HordeSat, fixed by Simple).
type producer struct {
	engine   Engine
	buffer   *clause.Buffer
	lbdLimit float64

	// producedLiterals is the literal count drained from buffer on the most
	// recent drainProducersInto call — the "literals seen this tick" figure
	// HordeSat's adapt compares against sharedLiteralsPerProducer.
	producedLiterals int
}

func newProducer(engine Engine, maxClauseSize int, initialLbdLimit float64) *producer {
	p := &producer{engine: engine, buffer: clause.NewBuffer(maxClauseSize), lbdLimit: initialLbdLimit}
	engine.OnExportClause(func(c *clause.Exchange) {
		p.buffer.AddClause(c)
	})
	return p
}

// base holds everything HordeSat and Simple share: a producer list, a
// shared database, the consumers a selection is delivered to, and the
// external clients (typically a global strategy) that also want this
// node's clauses.
type base struct {
	db        database.Database
	producers []*producer
	consumers []Engine
	clients   []sharing.Entity

	metrics *obs.Metrics
	log     *obs.Logger
}

// Join registers engine as both a clause source and a consumer of every
// selection this strategy delivers.
func (b *base) Join(engine Engine, maxClauseSize int, initialLbdLimit float64) {
	b.producers = append(b.producers, newProducer(engine, maxClauseSize, initialLbdLimit))
	b.consumers = append(b.consumers, engine)
	engine.SetLbdLimit(initialLbdLimit)
}

// AddClient implements sharing.Entity: e additionally receives every
// selection this node delivers locally — the hook a global strategy uses to
// also forward this node's learned clauses off-rank.
func (b *base) AddClient(e sharing.Entity) { b.clients = append(b.clients, e) }

// AddProducer implements sharing.Entity. Local strategies only accept typed
// Engine producers via Join; an arbitrary Entity producer has no buffer or
// LBD-limit hook to attach to, so this is a deliberate no-op.
func (b *base) AddProducer(sharing.Entity) {}

func (b *base) drainProducersInto(db database.Database) {
	for _, p := range b.producers {
		literals := 0
		for _, c := range p.buffer.GetClauses() {
			literals += c.Size()
			if db.AddClause(c) {
				if b.metrics != nil {
					b.metrics.ClausesExported.WithLabelValues(producerLabel(c.From())).Inc()
				}
			} else if b.metrics != nil {
				b.metrics.ClausesFiltered.WithLabelValues(producerLabel(c.From()), "rejected").Inc()
			}
		}
		p.producedLiterals = literals
	}
}

func (b *base) deliver(selection []*clause.Exchange) {
	if len(selection) == 0 {
		return
	}
	if b.metrics != nil {
		total := 0
		for _, c := range selection {
			total += c.Size()
		}
		b.metrics.SelectionSize.Observe(float64(total))
	}
	for _, consumer := range b.consumers {
		_ = consumer.AddClauses(selection)
		if b.metrics != nil {
			for _, c := range selection {
				b.metrics.ClausesImported.WithLabelValues(producerLabel(c.From())).Inc()
			}
		}
	}
	for _, client := range b.clients {
		client.ImportClauses(selection)
	}
}

func producerLabel(from uint32) string {
	return itoa(int(from))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
