package global

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
	"code.hybscloud.com/distsat/internal/transport"
	"code.hybscloud.com/distsat/internal/wire"
)

const ringTag uint32 = 0x81590000

// ringDedupCap bounds the fingerprint set so a long-running ring never grows
// this strategy's memory without limit.
const ringDedupCap = 1 << 16

// Ring forwards clauses around a one-hop ring topology: send own clauses to
// the right neighbor, receive from the left neighbor, deliver locally and
// re-publish for one further hop. Per spec.md §9's open question, cycles
// are prevented two ways at once: a Mallob-style fingerprint dedup set AND
// an explicit hop counter capped at world_size - 1, stamped into the wire
// payload — so a storm cannot occur even with fingerprinting disabled
// downstream.
type Ring struct {
	pendingOutbound

	layer transport.Layer
	local Local

	maxHops int

	seen      map[uint64]struct{}
	seenOrder []uint64

	log *obs.Logger
}

// NewRing constructs a Ring strategy over layer's WorldSize()-1 hop budget.
func NewRing(layer transport.Layer, local Local, log *obs.Logger) *Ring {
	return &Ring{
		layer:   layer,
		local:   local,
		maxHops: layer.WorldSize() - 1,
		seen:    make(map[uint64]struct{}, ringDedupCap),
		log:     log,
	}
}

func (r *Ring) InitMPIVariables() bool {
	return checkThreading(r.layer, r.log, "ring")
}

func (r *Ring) rightNeighbor() int {
	return (r.layer.Rank() + 1) % r.layer.WorldSize()
}

func (r *Ring) leftNeighbor() int {
	world := r.layer.WorldSize()
	return (r.layer.Rank() - 1 + world) % world
}

func (r *Ring) DoSharing(ctx context.Context) error {
	if r.layer.WorldSize() < 2 {
		r.take() // nothing to ring with; drop anything queued
		return nil
	}

	own := r.take()
	if len(own) > 0 {
		if err := r.send(ctx, own, 0); err != nil {
			return err
		}
	}

	from, data, err := r.layer.Recv(ctx, ringTag)
	if err != nil {
		if err == context.DeadlineExceeded || err == context.Canceled {
			return nil // no inbound clause this tick; not an error
		}
		return err
	}

	payload, err := wire.Decode(data, uint32(from), true)
	if err != nil {
		if r.log != nil {
			r.log.Sugar().Warnw("ring: dropping malformed payload", "from", from, "error", err)
		}
		return nil
	}

	var fresh []*clause.Exchange
	for _, c := range payload.Clauses {
		fp := c.FingerprintHash()
		if _, dup := r.seen[fp]; dup {
			continue
		}
		r.admit(fp)
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil
	}
	r.local.ImportClauses(fresh)

	if payload.Hops+1 < uint32(r.maxHops) {
		return r.send(ctx, fresh, payload.Hops+1)
	}
	return nil
}

func (r *Ring) admit(fp uint64) {
	if len(r.seenOrder) >= ringDedupCap {
		oldest := r.seenOrder[0]
		r.seenOrder = r.seenOrder[1:]
		delete(r.seen, oldest)
	}
	r.seen[fp] = struct{}{}
	r.seenOrder = append(r.seenOrder, fp)
}

func (r *Ring) send(ctx context.Context, cs []*clause.Exchange, hops uint32) error {
	payload := wire.Encode(wire.Payload{Clauses: cs, Hops: hops, HasHops: true})
	return r.layer.Send(ctx, r.rightNeighbor(), ringTag, payload)
}

func (r *Ring) AddClient(sharing.Entity)         {}
func (r *Ring) AddProducer(sharing.Entity)       {}
func (r *Ring) ConnectProducer(e sharing.Entity) { e.AddClient(r) }
