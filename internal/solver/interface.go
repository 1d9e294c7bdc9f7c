// Package solver defines the SolverInterface capability contract (spec.md
// §1/§6): CDCL and local-search engines are external black boxes to the
// framework, so this package ships the interface plus lightweight in-process
// stub engines used for wiring tests and local smoke runs — never a real SAT
// engine.
package solver

import (
	"context"

	"code.hybscloud.com/distsat/internal/clause"
)

// Result is the terminal verdict a Solve call can reach.
type Result int

const (
	Unknown Result = iota
	SAT
	UNSAT
)

func (r Result) String() string {
	switch r {
	case SAT:
		return "SAT"
	case UNSAT:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// Interface is the capability every portfolio member exposes to the framework.
type Interface interface {
	// LoadFormula installs the CNF and variable count once, before any Solve.
	LoadFormula(clauses [][]int32, varCount int) error
	// Solve searches under the given assumption cube, returning Unknown if
	// interrupted or if the engine gives up without a verdict.
	Solve(ctx context.Context, cube []int32) (Result, error)
	// AddClause imports a single externally-learned clause.
	AddClause(c *clause.Exchange) error
	// AddClauses imports a batch; equivalent to calling AddClause per clause
	// but lets an engine batch its internal locking.
	AddClauses(cs []*clause.Exchange) error
	// OnExportClause registers the callback invoked whenever this engine
	// learns a new clause worth sharing.
	OnExportClause(func(*clause.Exchange))
	// SetLbdLimit adjusts this engine's own clause-export LBD ceiling.
	SetLbdLimit(limit float64)
	// SetInterrupt asks a running Solve to return Unknown promptly.
	SetInterrupt()
	// UnsetInterrupt clears a prior SetInterrupt so a future Solve can run.
	UnsetInterrupt()
	// Model returns the satisfying assignment from the most recent SAT
	// verdict; undefined otherwise.
	Model() []int32
	// SolverID returns this engine instance's unique id within its process.
	SolverID() uint32
	// SolverTypeID returns a small integer identifying the engine family.
	SolverTypeID() uint32
	// SolverType returns the engine family's human-readable name.
	SolverType() string
}
