package working

import "testing"

func TestFormulaCodecRoundTrips(t *testing.T) {
	clauses := [][]int32{{1, -2, 3}, {-1}, {2, 3}}
	encoded := encodeFormula(clauses, 3)

	decoded, varCount, err := decodeFormula(encoded)
	if err != nil {
		t.Fatalf("decodeFormula: %v", err)
	}
	if varCount != 3 {
		t.Fatalf("expected varCount 3, got %d", varCount)
	}
	if len(decoded) != len(clauses) {
		t.Fatalf("expected %d clauses, got %d", len(clauses), len(decoded))
	}
	for i, c := range decoded {
		if len(c) != len(clauses[i]) {
			t.Fatalf("clause %d: expected %v, got %v", i, clauses[i], c)
		}
		for j, lit := range c {
			if lit != clauses[i][j] {
				t.Fatalf("clause %d literal %d: expected %d, got %d", i, j, clauses[i][j], lit)
			}
		}
	}
}

func TestFormulaCodecRoundTripsEmptyFormula(t *testing.T) {
	encoded := encodeFormula(nil, 0)
	decoded, varCount, err := decodeFormula(encoded)
	if err != nil {
		t.Fatalf("decodeFormula: %v", err)
	}
	if varCount != 0 || len(decoded) != 0 {
		t.Fatalf("expected empty formula round trip, got varCount=%d clauses=%d", varCount, len(decoded))
	}
}
