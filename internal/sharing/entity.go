// Package sharing implements the L2 SharingEntity contract plus its L3
// local and global strategy implementations.
package sharing

import "code.hybscloud.com/distsat/internal/clause"

// Entity is anything that can sit in the sharing fabric's producer/consumer
// graph: a solver handle, or a strategy acting as an aggregate peer (a local
// strategy is itself an Entity so a global strategy can treat "everything
// this node learned" as a single producer).
type Entity interface {
	// AddClient registers e as a consumer of this entity's exports.
	AddClient(e Entity)
	// AddProducer registers e as a producer this entity imports from.
	AddProducer(e Entity)
	// ConnectProducer wires e's export callback to this entity's import path.
	ConnectProducer(e Entity)
	// ImportClauses delivers externally-learned clauses to this entity.
	ImportClauses(cs []*clause.Exchange)
}

// Handle adapts a solver.Interface into an Entity, and fans its own learned
// clauses out to every registered client.
type Handle struct {
	engine interface {
		AddClauses(cs []*clause.Exchange) error
		OnExportClause(func(*clause.Exchange))
	}
	clients []Entity
}

// NewHandle wraps engine as a sharing Entity.
func NewHandle(engine interface {
	AddClauses(cs []*clause.Exchange) error
	OnExportClause(func(*clause.Exchange))
}) *Handle {
	h := &Handle{engine: engine}
	engine.OnExportClause(h.export)
	return h
}

func (h *Handle) export(c *clause.Exchange) {
	for _, client := range h.clients {
		client.ImportClauses([]*clause.Exchange{c})
	}
}

func (h *Handle) AddClient(e Entity) { h.clients = append(h.clients, e) }

// AddProducer is a no-op for a solver handle: a solver's only "producer"
// input is ImportClauses calls driven by some other entity's export path,
// not a registration it needs to track locally.
func (h *Handle) AddProducer(Entity) {}

// ConnectProducer wires e to export into this handle by registering h as
// one of e's clients.
func (h *Handle) ConnectProducer(e Entity) { e.AddClient(h) }

func (h *Handle) ImportClauses(cs []*clause.Exchange) {
	_ = h.engine.AddClauses(cs)
}
