package local

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/database"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
)

// HordeSat adapts each producer's LBD admission limit toward a target
// export rate every tick: raise the limit (accept more, looser clauses) on
// under-production, lower it on over-production, per spec.md §4.6.
type HordeSat struct {
	*base

	maxClauseSize             int
	sharedLiteralsPerProducer int
	initRound                 int

	tick int
}

// NewHordeSat constructs a HordeSat strategy. db is the shared database its
// DoSharing tick drains producers into and selects from.
func NewHordeSat(db database.Database, maxClauseSize, sharedLiteralsPerProducer, initRound int, metrics *obs.Metrics, log *obs.Logger) *HordeSat {
	return &HordeSat{
		base:                      &base{db: db, metrics: metrics, log: log},
		maxClauseSize:             maxClauseSize,
		sharedLiteralsPerProducer: sharedLiteralsPerProducer,
		initRound:                 initRound,
	}
}

// Join registers engine with an initial LBD limit of 2 (the tightest
// possible), held there through the initRound warm-up ticks and adapted
// on every tick after them.
func (h *HordeSat) Join(engine Engine) {
	h.base.Join(engine, h.maxClauseSize, 2)
}

// DoSharing runs one gather→select→deliver→adapt tick.
func (h *HordeSat) DoSharing(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	h.tick++

	h.drainProducersInto(h.db)

	budget := h.sharedLiteralsPerProducer * len(h.producers)
	selection := h.db.GiveSelection(budget)
	h.deliver(selection)

	h.adapt()
	return nil
}

// adapt nudges every producer's LBD limit toward sharedLiteralsPerProducer,
// clamped to [2, maxClauseSize], skipping the warm-up window (initRound).
func (h *HordeSat) adapt() {
	if h.tick <= h.initRound {
		return
	}
	for _, p := range h.producers {
		produced := p.producedLiterals
		target := h.sharedLiteralsPerProducer
		switch {
		case produced < target:
			p.lbdLimit += 0.5
		case produced > target:
			p.lbdLimit -= 0.5
		}
		if p.lbdLimit < 2 {
			p.lbdLimit = 2
		}
		if p.lbdLimit > float64(h.maxClauseSize) {
			p.lbdLimit = float64(h.maxClauseSize)
		}
		p.engine.SetLbdLimit(p.lbdLimit)
	}
}

// ImportClauses delivers externally-sourced clauses (from a global
// strategy) straight to every local consumer, bypassing the database so
// they are not re-exported this tick.
func (h *HordeSat) ImportClauses(cs []*clause.Exchange) {
	for _, consumer := range h.consumers {
		_ = consumer.AddClauses(cs)
		if h.metrics != nil {
			for _, c := range cs {
				h.metrics.ClausesImported.WithLabelValues(producerLabel(c.From())).Inc()
			}
		}
	}
}

// ConnectProducer implements sharing.Entity by registering this strategy
// (via its own ImportClauses) as e's client.
func (h *HordeSat) ConnectProducer(e sharing.Entity) { e.AddClient(h) }
