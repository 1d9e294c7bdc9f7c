package global

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharing"
	"code.hybscloud.com/distsat/internal/transport"
	"code.hybscloud.com/distsat/internal/wire"
)

const (
	mallobReduceTag    uint32 = 0x3A110B00
	mallobBroadcastTag uint32 = 0x3A110B01
)

// Mallob tree-reduces clauses up a binary tree built over rank indices (rank
// r's parent is (r-1)/2, its children 2r+1 and 2r+2), caps the aggregate at
// mallobMaxBufferSize, then broadcasts the root's result back down the same
// tree — no native reduce/broadcast collective is assumed, per spec.md §4.7;
// only transport.Layer's point-to-point Send/Recv are used.
type Mallob struct {
	pendingOutbound

	layer transport.Layer
	local Local

	maxBufferSize int
	lbdLimit      uint32
	sizeLimit     int

	resharePeriod   int
	maxCompensation float64
	compensation    float64
	tick            int

	log     *obs.Logger
	metrics *obs.Metrics
}

// NewMallob constructs a Mallob global strategy. lbdLimit/sizeLimit bound
// ingress (clauses absorbed from children); resharePeriod/maxCompensation
// pace this rank's own outbound contribution to the reduce.
func NewMallob(layer transport.Layer, local Local, maxBufferSize int, lbdLimit uint32, sizeLimit, resharePeriod int, maxCompensation float64, log *obs.Logger, metrics *obs.Metrics) *Mallob {
	return &Mallob{
		layer:           layer,
		local:           local,
		maxBufferSize:   maxBufferSize,
		lbdLimit:        lbdLimit,
		sizeLimit:       sizeLimit,
		resharePeriod:   resharePeriod,
		maxCompensation: maxCompensation,
		compensation:    1.0,
		log:             log,
		metrics:         metrics,
	}
}

func (m *Mallob) InitMPIVariables() bool {
	return checkThreading(m.layer, m.log, "mallob")
}

func (m *Mallob) parentRank() int {
	if m.layer.Rank() == 0 {
		return -1
	}
	return (m.layer.Rank() - 1) / 2
}

func (m *Mallob) childRanks() []int {
	n, r := m.layer.WorldSize(), m.layer.Rank()
	var out []int
	if left := 2*r + 1; left < n {
		out = append(out, left)
	}
	if right := 2*r + 2; right < n {
		out = append(out, right)
	}
	return out
}

func (m *Mallob) DoSharing(ctx context.Context) error {
	m.tick++

	own := truncateCount(m.own(), m.compensationBudget())

	aggregate := append([]*clause.Exchange(nil), own...)
	for _, child := range m.childRanks() {
		from, data, err := m.layer.Recv(ctx, mallobReduceTag)
		if err != nil {
			return err
		}
		payload, err := wire.Decode(data, uint32(from), false)
		if err != nil {
			if m.log != nil {
				m.log.Sugar().Warnw("mallob: dropping malformed reduce payload", "from", from, "error", err)
			}
			continue
		}
		aggregate = append(aggregate, m.filterIngress(payload.Clauses)...)
	}
	aggregate = dedupCapped(aggregate, m.maxBufferSize)

	if parent := m.parentRank(); parent >= 0 {
		if err := m.layer.Send(ctx, parent, mallobReduceTag, wire.Encode(wire.Payload{Clauses: aggregate})); err != nil {
			return err
		}
	}

	final := aggregate
	if parent := m.parentRank(); parent >= 0 {
		_, data, err := m.layer.Recv(ctx, mallobBroadcastTag)
		if err != nil {
			return err
		}
		payload, err := wire.Decode(data, uint32(parent), false)
		if err != nil {
			if m.log != nil {
				m.log.Sugar().Warnw("mallob: dropping malformed broadcast payload", "from", parent, "error", err)
			}
			final = nil
		} else {
			final = payload.Clauses
		}
	}

	encoded := wire.Encode(wire.Payload{Clauses: final})
	for _, child := range m.childRanks() {
		if err := m.layer.Send(ctx, child, mallobBroadcastTag, encoded); err != nil {
			return err
		}
	}

	if len(final) > 0 {
		m.local.ImportClauses(final)
	}

	m.adaptCompensation(len(own))
	return nil
}

// own drains this rank's pending outbound clauses, dropping any that exceed
// sizeLimit before they ever enter the reduce.
func (m *Mallob) own() []*clause.Exchange {
	cs := m.take()
	if m.sizeLimit <= 0 {
		return cs
	}
	out := cs[:0]
	for _, c := range cs {
		if c.Size() <= m.sizeLimit {
			out = append(out, c)
		}
	}
	return out
}

func (m *Mallob) filterIngress(cs []*clause.Exchange) []*clause.Exchange {
	var out []*clause.Exchange
	for _, c := range cs {
		if m.lbdLimit > 0 && c.LBD() > m.lbdLimit {
			continue
		}
		if m.sizeLimit > 0 && c.Size() > m.sizeLimit {
			continue
		}
		out = append(out, c)
	}
	return out
}

// compensationBudget scales maxBufferSize by the current per-rank
// compensation multiplier, so a rank whose branch has been under-filling
// the reduce buffer is allowed to push proportionally more of its own
// clauses up next tick.
func (m *Mallob) compensationBudget() int {
	budget := int(float64(m.maxBufferSize) * m.compensation)
	if budget < 0 {
		budget = 0
	}
	return budget
}

// adaptCompensation revisits the compensation multiplier every
// resharePeriod ticks: if this rank's own contribution has been filling its
// whole budget, back off toward 1 (no special treatment needed); otherwise
// nudge up toward maxCompensation on the assumption this branch is
// under-producing relative to its share.
func (m *Mallob) adaptCompensation(ownContributed int) {
	if m.resharePeriod <= 0 || m.tick%m.resharePeriod != 0 {
		return
	}
	if ownContributed >= m.compensationBudget() {
		m.compensation -= 0.1
		if m.compensation < 1.0 {
			m.compensation = 1.0
		}
		return
	}
	m.compensation += 0.1
	if m.compensation > m.maxCompensation {
		m.compensation = m.maxCompensation
	}
}

func truncateCount(cs []*clause.Exchange, limit int) []*clause.Exchange {
	if limit <= 0 || len(cs) <= limit {
		return cs
	}
	return cs[:limit]
}

// dedupCapped keeps the first maxBufferSize clauses unique by
// FingerprintHash, preserving arrival order.
func dedupCapped(cs []*clause.Exchange, maxBufferSize int) []*clause.Exchange {
	seen := make(map[uint64]struct{}, len(cs))
	out := make([]*clause.Exchange, 0, len(cs))
	for _, c := range cs {
		fp := c.FingerprintHash()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, c)
		if maxBufferSize > 0 && len(out) >= maxBufferSize {
			break
		}
	}
	return out
}

func (m *Mallob) AddClient(sharing.Entity)         {}
func (m *Mallob) AddProducer(sharing.Entity)       {}
func (m *Mallob) ConnectProducer(e sharing.Entity) { e.AddClient(m) }
