package local

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/database"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
)

// Simple is the non-adaptive local sharing strategy: same
// gather→select→deliver shape as HordeSat, fixed shareLimit, no LBD
// adaptation step.
type Simple struct {
	*base

	maxClauseSize int
	shareLimit    int
}

// NewSimple constructs a Simple strategy with a fixed per-tick literal
// budget of shareLimit.
func NewSimple(db database.Database, maxClauseSize, shareLimit int, metrics *obs.Metrics, log *obs.Logger) *Simple {
	return &Simple{
		base:          &base{db: db, metrics: metrics, log: log},
		maxClauseSize: maxClauseSize,
		shareLimit:    shareLimit,
	}
}

// Join registers engine with a fixed LBD limit equal to maxClauseSize: no
// adaptation means no reason to start tighter than the ceiling.
func (s *Simple) Join(engine Engine) {
	s.base.Join(engine, s.maxClauseSize, float64(s.maxClauseSize))
}

// DoSharing runs one gather→select→deliver tick with no adaptation step.
func (s *Simple) DoSharing(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.drainProducersInto(s.db)
	selection := s.db.GiveSelection(s.shareLimit)
	s.deliver(selection)
	return nil
}

// ImportClauses delivers externally-sourced clauses straight to every
// local consumer.
func (s *Simple) ImportClauses(cs []*clause.Exchange) {
	for _, consumer := range s.consumers {
		_ = consumer.AddClauses(cs)
		if s.metrics != nil {
			for _, c := range cs {
				s.metrics.ClausesImported.WithLabelValues(producerLabel(c.From())).Inc()
			}
		}
	}
}

// ConnectProducer implements sharing.Entity by registering this strategy
// (via its own ImportClauses) as e's client.
func (s *Simple) ConnectProducer(e sharing.Entity) { e.AddClient(s) }
