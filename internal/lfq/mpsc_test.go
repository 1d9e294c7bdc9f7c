// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/distsat/internal/lfq"
)

// TestMPSCBasic tests basic MPSC (Multiple Producer, Single Consumer) operations.
// MPSC provides lock-free enqueue and wait-free dequeue.
func TestMPSCBasic(t *testing.T) {
	q := lfq.NewMPSC[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	for i := range 4 {
		v := i + 100
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	v := 999
	if err := q.Enqueue(&v); !errors.Is(err, lfq.ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 4 {
		val, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.Dequeue(); !errors.Is(err, lfq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestMPSCPanicsOnSmallCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewMPSC(1): expected panic, got none")
		}
	}()
	lfq.NewMPSC[int](1)
}

// TestMPSCConcurrentProducers hammers one queue from many goroutines and
// checks every enqueued value is eventually observed exactly once.
func TestMPSCConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 2000

	q := lfq.NewMPSC[int](4096)
	var wg sync.WaitGroup
	var enqueued atomic.Int64

	for p := range producers {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := range perProducer {
				v := base*perProducer + i
				for q.Enqueue(&v) != nil {
					// backpressure: queue momentarily full, retry
				}
				enqueued.Add(1)
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProducer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(seen) < producers*perProducer {
			v, err := q.Dequeue()
			if err != nil {
				continue
			}
			if seen[v] {
				t.Errorf("duplicate value dequeued: %d", v)
			}
			seen[v] = true
		}
	}()

	wg.Wait()
	q.Drain()
	<-done

	if got := int(enqueued.Load()); got != producers*perProducer {
		t.Fatalf("enqueued count: got %d, want %d", got, producers*perProducer)
	}
}

func TestMPSCDrainAllowsFullDequeueAfterProducersStop(t *testing.T) {
	q := lfq.NewMPSC[int](4)
	for i := range 4 {
		v := i
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	q.Drain()
	for i := range 4 {
		v, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, i)
		}
	}
}
