package solver

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/distsat/internal/clause"
)

// stubEngine is a minimal, correct-but-naive DPLL-style engine: enough to
// exercise the framework's import/export/termination plumbing without
// claiming to be a competitive SAT solver.
type stubEngine struct {
	id       uint32
	typeID   uint32
	typeName string

	mu       sync.Mutex
	formula  [][]int32
	varCount int
	model    []int32

	lbdLimit  float64
	interrupt atomix.Bool

	kissatFamily KissatFamily

	onExport func(*clause.Exchange)
}

// KissatFamily is the restart-policy flavor PortfolioPRS assigns per node
// group (spec.md §12): a diversification-only knob, since the stub engine
// has no real kissat internals to tune.
type KissatFamily int

const (
	SatStable KissatFamily = iota
	UnsatFocused
	MixedSwitch
)

func (f KissatFamily) String() string {
	switch f {
	case SatStable:
		return "sat-stable"
	case UnsatFocused:
		return "unsat-focused"
	default:
		return "mixed-switch"
	}
}

// SetKissatFamily records this engine's restart-policy flavor. Not part of
// Interface — callers that care (PortfolioPRS) type-assert for it.
func (s *stubEngine) SetKissatFamily(f KissatFamily) {
	s.mu.Lock()
	s.kissatFamily = f
	s.mu.Unlock()
}

func newStubEngine(id, typeID uint32, typeName string) *stubEngine {
	return &stubEngine{id: id, typeID: typeID, typeName: typeName, lbdLimit: 1 << 30}
}

func (s *stubEngine) LoadFormula(clauses [][]int32, varCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formula = clauses
	s.varCount = varCount
	return nil
}

// Solve runs a deterministic DPLL search (lowest unassigned variable first,
// true before false), the same for every family, rank, id and KissatFamily:
// chosen to be obviously correct rather than fast, since this stub exists
// only to prove the portfolio wiring works end to end.
func (s *stubEngine) Solve(ctx context.Context, cube []int32) (Result, error) {
	s.mu.Lock()
	formula := s.formula
	varCount := s.varCount
	s.mu.Unlock()

	assignment := make([]int8, varCount+1) // 0 unset, 1 true, -1 false
	for _, lit := range cube {
		assignment[abs32(lit)] = sign(lit)
	}

	ok, model := dpll(ctx, formula, varCount, assignment, &s.interrupt)
	if ctx.Err() != nil || s.interrupt.LoadAcquire() {
		return Unknown, nil
	}
	if !ok {
		return UNSAT, nil
	}
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	return SAT, nil
}

func dpll(ctx context.Context, formula [][]int32, varCount int, assignment []int8, interrupt *atomix.Bool) (bool, []int32) {
	if ctx.Err() != nil || interrupt.LoadAcquire() {
		return false, nil
	}

	satisfied, conflict := evaluate(formula, assignment)
	if conflict {
		return false, nil
	}
	if satisfied {
		model := make([]int32, 0, varCount)
		for v := 1; v <= varCount; v++ {
			if assignment[v] >= 0 {
				model = append(model, int32(v))
			} else {
				model = append(model, -int32(v))
			}
		}
		return true, model
	}

	v := firstUnassigned(assignment)
	if v == 0 {
		return true, finalizeModel(assignment, varCount)
	}

	for _, trial := range [2]int8{1, -1} {
		assignment[v] = trial
		if ok, model := dpll(ctx, formula, varCount, assignment, interrupt); ok {
			return true, model
		}
	}
	assignment[v] = 0
	return false, nil
}

func evaluate(formula [][]int32, assignment []int8) (satisfied bool, conflict bool) {
	allSatisfied := true
	for _, c := range formula {
		clauseSatisfied := false
		clauseHasUnassigned := false
		for _, lit := range c {
			v := abs32(lit)
			a := assignment[v]
			if a == 0 {
				clauseHasUnassigned = true
				continue
			}
			if sign(lit) == a {
				clauseSatisfied = true
				break
			}
		}
		if !clauseSatisfied {
			allSatisfied = false
			if !clauseHasUnassigned {
				return false, true
			}
		}
	}
	return allSatisfied, false
}

func firstUnassigned(assignment []int8) int {
	for v := 1; v < len(assignment); v++ {
		if assignment[v] == 0 {
			return v
		}
	}
	return 0
}

func finalizeModel(assignment []int8, varCount int) []int32 {
	model := make([]int32, 0, varCount)
	for v := 1; v <= varCount; v++ {
		if assignment[v] >= 0 {
			model = append(model, int32(v))
		} else {
			model = append(model, -int32(v))
		}
	}
	return model
}

func abs32(x int32) int {
	if x < 0 {
		return int(-x)
	}
	return int(x)
}

func sign(x int32) int8 {
	if x < 0 {
		return -1
	}
	return 1
}

func (s *stubEngine) AddClause(c *clause.Exchange) error {
	s.mu.Lock()
	s.formula = append(s.formula, c.Literals())
	s.mu.Unlock()
	return nil
}

func (s *stubEngine) AddClauses(cs []*clause.Exchange) error {
	s.mu.Lock()
	for _, c := range cs {
		s.formula = append(s.formula, c.Literals())
	}
	s.mu.Unlock()
	return nil
}

func (s *stubEngine) OnExportClause(f func(*clause.Exchange)) {
	s.mu.Lock()
	s.onExport = f
	s.mu.Unlock()
}

func (s *stubEngine) SetLbdLimit(limit float64) {
	s.mu.Lock()
	s.lbdLimit = limit
	s.mu.Unlock()
}

func (s *stubEngine) SetInterrupt()   { s.interrupt.StoreRelease(true) }
func (s *stubEngine) UnsetInterrupt() { s.interrupt.StoreRelease(false) }

func (s *stubEngine) Model() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *stubEngine) SolverID() uint32     { return s.id }
func (s *stubEngine) SolverTypeID() uint32 { return s.typeID }
func (s *stubEngine) SolverType() string   { return s.typeName }
