// Package global implements the L3 global sharing strategies from spec.md
// §4.7: inter-rank clause exchange over internal/transport.
package global

import (
	"context"
	"sync"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
	"code.hybscloud.com/distsat/internal/transport"
)

// Strategy is the L3 global sharing contract: a tick that exchanges
// clauses with the rest of the distributed run.
type Strategy interface {
	// InitMPIVariables probes the transport's threading support. Returning
	// false means the caller must drop this strategy and continue
	// local-only, per spec.md §4.7.
	InitMPIVariables() bool
	DoSharing(ctx context.Context) error
}

// Local is the node-local entity a global strategy both drains outbound
// clauses from (by registering itself as its client) and delivers inbound
// clauses to.
type Local = sharing.Entity

const requiredThreading = transport.ThreadingSerialized

func checkThreading(layer transport.Layer, log *obs.Logger, strategyName string) bool {
	level := layer.ThreadingLevel()
	if !level.Supports(requiredThreading) {
		if log != nil {
			log.Sugar().Warnw("transport threading level insufficient, dropping global strategy",
				"strategy", strategyName, "have", level.String(), "need", requiredThreading.String())
		}
		return false
	}
	return true
}

// pendingOutbound is a tiny mailbox a Strategy's ConnectProducer target
// writes into via ImportClauses; DoSharing drains it each tick. It exists
// so global strategies can sit behind sharing.Entity without needing a
// second concrete type per strategy. ImportClauses runs on the local
// strategy's sharer goroutine while take runs on this strategy's own
// sharer goroutine, so both are guarded by mu.
type pendingOutbound struct {
	mu      sync.Mutex
	clauses []*clause.Exchange
}

func (p *pendingOutbound) ImportClauses(cs []*clause.Exchange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clauses = append(p.clauses, cs...)
}
func (p *pendingOutbound) take() []*clause.Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.clauses
	p.clauses = nil
	return out
}

// truncateToBudget keeps a prefix of cs whose total literal count stays
// within limit. A non-positive limit means "no limit".
func truncateToBudget(cs []*clause.Exchange, limit int) []*clause.Exchange {
	if limit <= 0 {
		return cs
	}
	remaining := limit
	i := 0
	for ; i < len(cs); i++ {
		if remaining < cs[i].Size() {
			break
		}
		remaining -= cs[i].Size()
	}
	return cs[:i]
}
