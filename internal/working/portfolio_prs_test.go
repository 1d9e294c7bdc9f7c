package working

import (
	"context"
	"testing"
	"time"

	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/transport"
)

func TestPortfolioPRSShortCircuitsOnPreprocessedUnsat(t *testing.T) {
	log, err := obs.NewLogger(0)
	if err != nil {
		t.Fatalf("obs.NewLogger: %v", err)
	}
	metrics := obs.NewMetrics()
	bus := NewBus()
	layer := transport.NewMemCluster(1)[0]

	clauses := [][]int32{{1}, {-1}}
	p := NewPortfolioPRS(testParams(), 0, layer, clauses, 1, bus, log, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Solve(ctx, nil); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if p.State() != stateDone {
		t.Fatalf("expected state Done, got %v", p.State())
	}
	result, _, _ := bus.Result()
	if result.String() != "UNSAT" {
		t.Fatalf("expected UNSAT short-circuit, got %v", result)
	}
}

func TestPortfolioPRSBroadcastsAndSolvesSatisfiableFormula(t *testing.T) {
	log, err := obs.NewLogger(0)
	if err != nil {
		t.Fatalf("obs.NewLogger: %v", err)
	}
	metrics := obs.NewMetrics()
	bus := NewBus()
	layer := transport.NewMemCluster(1)[0]

	clauses := [][]int32{{1, 2}, {-1, 2}, {1, -2}}
	p := NewPortfolioPRS(testParams(), 0, layer, clauses, 2, bus, log, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Solve(ctx, nil); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if p.State() != stateDone {
		t.Fatalf("expected state Done, got %v", p.State())
	}

	result, model, _ := bus.Result()
	if result.String() != "SAT" {
		t.Fatalf("expected SAT, got %v", result)
	}
	assignment := map[int32]bool{}
	for _, lit := range model {
		assignment[lit] = true
	}
	if !assignment[1] || !assignment[2] {
		t.Fatalf("expected model with both variables true, got %v", model)
	}
}

func TestPortfolioPRSMultiRankConverges(t *testing.T) {
	log, err := obs.NewLogger(0)
	if err != nil {
		t.Fatalf("obs.NewLogger: %v", err)
	}
	layers := transport.NewMemCluster(3)
	clauses := [][]int32{{1, 2}, {-1, 2}, {1, -2}}

	type outcome struct {
		result string
		model  []int32
	}
	outcomes := make(chan outcome, len(layers))

	for rank, layer := range layers {
		go func(rank int, layer transport.Layer) {
			bus := NewBus()
			p := NewPortfolioPRS(testParams(), rank, layer, clauses, 2, bus, log, obs.NewMetrics())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Solve(ctx, nil); err != nil {
				outcomes <- outcome{result: "error:" + err.Error()}
				return
			}
			result, model, _ := bus.Result()
			outcomes <- outcome{result: result.String(), model: model}
		}(rank, layer)
	}

	for i := 0; i < len(layers); i++ {
		o := <-outcomes
		if o.result != "SAT" {
			t.Fatalf("rank reported %v, expected SAT", o.result)
		}
	}
}
