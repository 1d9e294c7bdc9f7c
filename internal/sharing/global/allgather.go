package global

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
	"code.hybscloud.com/distsat/internal/transport"
	"code.hybscloud.com/distsat/internal/wire"
)

// AllGather exchanges every rank's bounded local selection with every other
// rank each tick, per spec.md §4.7.
type AllGather struct {
	pendingOutbound

	layer transport.Layer
	local Local

	maxClauseSize int
	budget        int

	log     *obs.Logger
	metrics *obs.Metrics
}

// NewAllGather constructs an AllGather strategy. local is the node's own
// sharing entity (typically its HordeSat/Simple local strategy); inbound
// clauses from every other rank are delivered to it each tick.
func NewAllGather(layer transport.Layer, local Local, maxClauseSize, budget int, log *obs.Logger, metrics *obs.Metrics) *AllGather {
	return &AllGather{layer: layer, local: local, maxClauseSize: maxClauseSize, budget: budget, log: log, metrics: metrics}
}

func (a *AllGather) InitMPIVariables() bool {
	return checkThreading(a.layer, a.log, "allgather")
}

func (a *AllGather) DoSharing(ctx context.Context) error {
	outbound := truncateToBudget(a.take(), a.budget)
	payload := wire.Encode(wire.Payload{Clauses: outbound})

	gathered, err := a.layer.AllGather(ctx, payload)
	if err != nil {
		return err
	}

	var imported []*clause.Exchange
	for rank, data := range gathered {
		if rank == a.layer.Rank() {
			continue
		}
		decoded, err := wire.Decode(data, uint32(rank), false)
		if err != nil {
			if a.log != nil {
				a.log.Sugar().Warnw("allgather: dropping malformed payload", "from", rank, "error", err)
			}
			continue
		}
		imported = append(imported, decoded.Clauses...)
	}
	if len(imported) > 0 {
		a.local.ImportClauses(imported)
	}
	return nil
}

// AddClient, AddProducer, ConnectProducer round out sharing.Entity: a
// global strategy is a leaf in the fabric, so these forward nowhere.
func (a *AllGather) AddClient(sharing.Entity)         {}
func (a *AllGather) AddProducer(sharing.Entity)       {}
func (a *AllGather) ConnectProducer(e sharing.Entity) { e.AddClient(a) }
