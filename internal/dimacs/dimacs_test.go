package dimacs_test

import (
	"strings"
	"testing"

	"code.hybscloud.com/distsat/internal/dimacs"
)

func TestParseReadsHeaderAndClauses(t *testing.T) {
	input := `c a comment
p cnf 3 2
1 -2 3 0
-1 2 0
`
	clauses, varCount, err := dimacs.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if varCount != 3 {
		t.Fatalf("expected varCount 3, got %d", varCount)
	}
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(clauses))
	}
	if len(clauses[0]) != 3 || clauses[0][0] != 1 || clauses[0][1] != -2 || clauses[0][2] != 3 {
		t.Fatalf("unexpected first clause: %v", clauses[0])
	}
	if len(clauses[1]) != 2 || clauses[1][0] != -1 || clauses[1][1] != 2 {
		t.Fatalf("unexpected second clause: %v", clauses[1])
	}
}

func TestParseHandlesClauseSpanningMultipleLines(t *testing.T) {
	input := "p cnf 2 1\n1\n-2\n0\n"
	clauses, _, err := dimacs.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(clauses) != 1 || len(clauses[0]) != 2 {
		t.Fatalf("expected one 2-literal clause spanning lines, got %v", clauses)
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, _, err := dimacs.Parse(strings.NewReader("1 2 0\n"))
	if err == nil {
		t.Fatal("expected an error for missing p cnf header")
	}
}
