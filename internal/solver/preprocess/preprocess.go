// Package preprocess implements the deliberately small PRS-style
// simplification pass PortfolioPRS runs once on rank 0 before broadcasting
// the formula: unit propagation and pure-literal elimination to a
// fixpoint, with enough bookkeeping to restore a full model afterward.
// Full PRS formula simplification is out of scope (see SPEC_FULL.md §17).
package preprocess

// Elimination records a variable this pass fixed outright, in the order it
// was decided.
type Elimination struct {
	Var      int32
	Assigned bool // true means the variable was fixed to true
}

// Result is the simplified formula plus enough state to restore a model.
type Result struct {
	Clauses      [][]int32
	VarCount     int
	Eliminations []Elimination
	Unsat        bool
}

// Simplify runs unit propagation and pure-literal elimination to a
// fixpoint. The returned Clauses keep the original variable numbering —
// eliminated variables simply no longer appear in any clause.
func Simplify(clauses [][]int32, varCount int) Result {
	cur := copyClauses(clauses)
	var elims []Elimination

	for {
		before := len(elims)

		cur, elims = propagateUnits(cur, elims)
		if clausesContainEmpty(cur) {
			return Result{VarCount: varCount, Eliminations: elims, Unsat: true}
		}

		cur, elims = eliminatePureLiterals(cur, varCount, elims)

		if len(elims) == before {
			break
		}
	}

	return Result{Clauses: cur, VarCount: varCount, Eliminations: elims}
}

// RestoreModel fixes every eliminated variable's value in model (indexed
// var-1, holding a signed literal or 0 for free variables already assigned
// by the solver). Applied in reverse elimination order, per spec.md §9's
// preprocessor-restoration wording.
func RestoreModel(model []int32, eliminations []Elimination) []int32 {
	for i := len(eliminations) - 1; i >= 0; i-- {
		e := eliminations[i]
		if int(e.Var) > len(model) {
			continue
		}
		if e.Assigned {
			model[e.Var-1] = e.Var
		} else {
			model[e.Var-1] = -e.Var
		}
	}
	return model
}

func copyClauses(clauses [][]int32) [][]int32 {
	out := make([][]int32, len(clauses))
	for i, c := range clauses {
		cp := make([]int32, len(c))
		copy(cp, c)
		out[i] = cp
	}
	return out
}

func clausesContainEmpty(clauses [][]int32) bool {
	for _, c := range clauses {
		if len(c) == 0 {
			return true
		}
	}
	return false
}

// propagateUnits repeatedly finds a unit clause, fixes its variable, drops
// every clause it satisfies, and strikes its negation from the rest.
func propagateUnits(clauses [][]int32, elims []Elimination) ([][]int32, []Elimination) {
	for {
		unit, found := findUnit(clauses)
		if !found {
			return clauses, elims
		}
		elims = append(elims, Elimination{Var: abs32(unit), Assigned: unit > 0})
		clauses = assignLiteral(clauses, unit)
		if clausesContainEmpty(clauses) {
			return clauses, elims
		}
	}
}

func findUnit(clauses [][]int32) (int32, bool) {
	for _, c := range clauses {
		if len(c) == 1 {
			return c[0], true
		}
	}
	return 0, false
}

// assignLiteral removes every clause satisfied by lit and strikes -lit from
// the rest (possibly producing an empty clause, signaling UNSAT).
func assignLiteral(clauses [][]int32, lit int32) [][]int32 {
	out := clauses[:0]
	for _, c := range clauses {
		satisfied := false
		kept := c[:0]
		for _, l := range c {
			if l == lit {
				satisfied = true
				break
			}
			if l != -lit {
				kept = append(kept, l)
			}
		}
		if satisfied {
			continue
		}
		out = append(out, kept)
	}
	return out
}

// eliminatePureLiterals fixes every variable that appears with only one
// polarity across the whole clause set.
func eliminatePureLiterals(clauses [][]int32, varCount int, elims []Elimination) ([][]int32, []Elimination) {
	positive := make(map[int32]bool, varCount)
	negative := make(map[int32]bool, varCount)
	for _, c := range clauses {
		for _, l := range c {
			if l > 0 {
				positive[l] = true
			} else {
				negative[-l] = true
			}
		}
	}

	var pureLits []int32
	for v := int32(1); v <= int32(varCount); v++ {
		pos, neg := positive[v], negative[v]
		if pos && !neg {
			pureLits = append(pureLits, v)
		} else if neg && !pos {
			pureLits = append(pureLits, -v)
		}
	}

	for _, lit := range pureLits {
		elims = append(elims, Elimination{Var: abs32(lit), Assigned: lit > 0})
		clauses = assignLiteral(clauses, lit)
	}
	return clauses, elims
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
