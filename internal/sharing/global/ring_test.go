package global_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/sharing/global"
	"code.hybscloud.com/distsat/internal/transport"
)

func TestRingForwardsAroundTopologyWithHopCap(t *testing.T) {
	const n = 3
	layers := transport.NewMemCluster(n)
	locals := make([]*fakeLocal, n)
	rings := make([]*global.Ring, n)
	for i := 0; i < n; i++ {
		locals[i] = &fakeLocal{}
		rings[i] = global.NewRing(layers[i], locals[i], nil)
		if !rings[i].InitMPIVariables() {
			t.Fatalf("rank %d: expected memLayer to support required threading", i)
		}
	}

	rings[0].ImportClauses([]*clause.Exchange{clause.New([]int32{1, 2}, 2, 0)})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	for _, r := range rings {
		wg.Add(1)
		go func(r *global.Ring) {
			defer wg.Done()
			if err := r.DoSharing(ctx); err != nil {
				t.Errorf("DoSharing: %v", err)
			}
		}(r)
	}
	wg.Wait()

	if got := len(locals[0].snapshot()); got != 0 {
		t.Fatalf("rank 0: originating rank should not receive its own clause back, got %d", got)
	}
	if got := len(locals[1].snapshot()); got != 1 {
		t.Fatalf("rank 1: expected 1 forwarded clause, got %d", got)
	}
	if got := len(locals[2].snapshot()); got != 1 {
		t.Fatalf("rank 2: expected 1 forwarded clause (one further hop), got %d", got)
	}
}

func TestRingDeduplicatesByFingerprint(t *testing.T) {
	layers := transport.NewMemCluster(2)
	local0, local1 := &fakeLocal{}, &fakeLocal{}
	r0 := global.NewRing(layers[0], local0, nil)
	r1 := global.NewRing(layers[1], local1, nil)

	c := clause.New([]int32{5, -6}, 2, 0)
	r0.ImportClauses([]*clause.Exchange{c})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := r0.DoSharing(ctx); err != nil {
		t.Fatalf("r0.DoSharing: %v", err)
	}
	if err := r1.DoSharing(ctx); err != nil {
		t.Fatalf("r1.DoSharing: %v", err)
	}
	if got := len(local1.snapshot()); got != 1 {
		t.Fatalf("expected 1 delivered clause, got %d", got)
	}

	// Re-deliver the identical clause content from rank 0 again; rank 1's
	// fingerprint set should reject it as a duplicate on a second round.
	dup := clause.New([]int32{5, -6}, 2, 0)
	r0.ImportClauses([]*clause.Exchange{dup})

	ctx2, cancel2 := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel2()
	if err := r0.DoSharing(ctx2); err != nil {
		t.Fatalf("r0.DoSharing: %v", err)
	}
	if err := r1.DoSharing(ctx2); err != nil {
		t.Fatalf("r1.DoSharing: %v", err)
	}
	if got := len(local1.snapshot()); got != 1 {
		t.Fatalf("expected duplicate fingerprint to be rejected, still got %d total", got)
	}
}
