// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides a bounded FIFO queue for the multi-producer,
// single-consumer fan-in pattern.
//
// distsat uses exactly one access pattern everywhere it moves learned
// clauses between goroutines: many producers (solver engine callbacks,
// inbound transport readers) feeding one consumer (a sharer's drain loop).
// [MPSC] is an FAA-based SCQ-style queue specialised for that pattern; the
// sibling SPSC/SPMC/MPMC topologies this package's ancestor offered are not
// needed here and have been dropped.
//
// # Quick Start
//
//	q := lfq.NewMPSC[*clause.Exchange](1024)
//
//	// Multiple producers
//	go func() { q.Enqueue(&c) }()
//
//	// Single consumer
//	for {
//	    c, err := q.Dequeue()
//	    if err == nil {
//	        process(c)
//	    }
//	}
//
// # Capacity
//
// Capacity rounds up to the next power of 2 and requires 2n physical slots
// for capacity n (FAA producers need the extra headroom to avoid CAS
// storms under contention). Panics if capacity < 2.
//
// # Error Handling
//
// [MPSC.Enqueue] and [MPSC.Dequeue] return [ErrWouldBlock], sourced from
// [code.hybscloud.com/iox] for ecosystem consistency, when the queue is
// full or empty respectively. This is a control flow signal, not a failure:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !lfq.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Graceful Shutdown
//
// Dequeue has no livelock threshold: it returns ErrWouldBlock only when the
// next slot has not been published yet. [MPSC.Drain] (see [Drainer]) only
// records that producers have finished; it does not change how Dequeue
// behaves, and the consumer empties the queue with plain Dequeue calls.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships built from
// acquire/release atomics on separate variables, so it may report false
// positives against this algorithm. [RaceEnabled] reports whether the
// detector is active; the package's own tests do not consult it.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package lfq
