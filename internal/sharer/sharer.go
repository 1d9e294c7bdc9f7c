// Package sharer drives sharing.Strategy ticks on dedicated goroutines, per
// spec.md §4.8/§5.
package sharer

import (
	"context"
	"time"

	"code.hybscloud.com/distsat/internal/obs"
)

// Strategy is the minimal tick contract a Sharer drives — satisfied by both
// local.HordeSat/Simple and every global.Strategy.
type Strategy interface {
	DoSharing(ctx context.Context) error
}

// Ending reports whether the run has reached a definitive result; a Sharer
// exits its loop promptly once this returns true, after one final flush.
type Ending interface {
	Ending() bool
}

// Sharer runs one Strategy's DoSharing on a time.Ticker-paced schedule in a
// dedicated goroutine, exiting when bus reports Ending (or ctx is
// cancelled), performing one last DoSharing call before returning so a
// result race at shutdown doesn't silently drop a pending export.
type Sharer struct {
	strategy Strategy
	period   time.Duration
	bus      Ending
	log      *obs.Logger

	done chan struct{}
}

// New constructs a Sharer for a single strategy, ticking every period.
func New(strategy Strategy, period time.Duration, bus Ending, log *obs.Logger) *Sharer {
	return &Sharer{strategy: strategy, period: period, bus: bus, log: log, done: make(chan struct{})}
}

// Run blocks, driving ticks until ctx is cancelled or bus.Ending() is true.
// Intended to be called in its own goroutine.
func (s *Sharer) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case <-ticker.C:
			if s.bus != nil && s.bus.Ending() {
				s.flush()
				return
			}
			if err := s.strategy.DoSharing(ctx); err != nil && s.log != nil {
				s.log.Sugar().Warnw("sharing tick failed", "error", err)
			}
		}
	}
}

// flush performs one last DoSharing call with a short-lived context so a
// shutting-down Sharer still delivers whatever it was about to export.
func (s *Sharer) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.period)
	defer cancel()
	if err := s.strategy.DoSharing(ctx); err != nil && s.log != nil {
		s.log.Sugar().Warnw("final sharing flush failed", "error", err)
	}
}

// Done returns a channel closed once Run has returned.
func (s *Sharer) Done() <-chan struct{} { return s.done }

// RoundRobin is a single Sharer driving several strategies in turn each
// tick, the "one Sharer round-robining a list" option from spec.md §4.8.
type RoundRobin struct {
	strategies []Strategy
	period     time.Duration
	bus        Ending
	log        *obs.Logger

	done chan struct{}
}

// NewRoundRobin constructs a Sharer that visits each strategy once per
// tick, in order.
func NewRoundRobin(strategies []Strategy, period time.Duration, bus Ending, log *obs.Logger) *RoundRobin {
	return &RoundRobin{strategies: strategies, period: period, bus: bus, log: log, done: make(chan struct{})}
}

func (r *RoundRobin) Run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case <-ticker.C:
			if r.bus != nil && r.bus.Ending() {
				r.flush()
				return
			}
			r.tick(ctx)
		}
	}
}

// flush runs one final round with a fresh short-lived context, since ctx
// may already be cancelled by the time shutdown is observed.
func (r *RoundRobin) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), r.period)
	defer cancel()
	r.tick(ctx)
}

func (r *RoundRobin) tick(ctx context.Context) {
	for _, s := range r.strategies {
		if err := s.DoSharing(ctx); err != nil && r.log != nil {
			r.log.Sugar().Warnw("round-robin sharing tick failed", "error", err)
		}
	}
}

func (r *RoundRobin) Done() <-chan struct{} { return r.done }
