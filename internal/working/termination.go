// Package working implements the L5 WorkingStrategy contract and the
// termination bus every strategy joins on, per spec.md §4.9/§8/§9.
package working

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/distsat/internal/solver"
)

// Interruptible is the subset of solver.Interface the termination bus needs
// to stop every running engine once a result is in.
type Interruptible interface {
	SetInterrupt()
}

// Bus is the single mutable termination tuple spec.md §9 calls out: a
// globalEnding flag plus finalResult/finalModel, passed by reference to
// every strategy rather than kept as ambient globals.
type Bus struct {
	ending atomix.Bool

	mu         sync.Mutex
	cond       *sync.Cond
	resultSet  bool
	result     solver.Result
	model      []int32
	winnerRank int

	parent *Bus

	interruptables []Interruptible
}

// NewBus constructs a root termination bus (no parent: the first Join
// broadcasts directly).
func NewBus() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// NewChildBus constructs a termination bus that forwards its first result
// to parent instead of broadcasting locally, so a sub-structure's own join
// feeds the top-level bus. No working strategy in this package builds one.
func NewChildBus(parent *Bus) *Bus {
	b := NewBus()
	b.parent = parent
	return b
}

// Register adds engines whose SetInterrupt must be called the moment this
// bus's result is decided.
func (b *Bus) Register(engines ...Interruptible) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interruptables = append(b.interruptables, engines...)
}

// Ending reports whether a definitive result has been recorded. Once true
// it is never false again (spec.md §8's termination monotonicity
// invariant) — the flag is write-once via Join's resultSet guard.
func (b *Bus) Ending() bool { return b.ending.LoadAcquire() }

// Join records a definitive result from rank/winnerRank. Exactly-once per
// spec.md §4.9/§8: only the first caller's result is recorded; later calls
// (including concurrent SAT/SAT or SAT/UNSAT races) are no-ops, resolving
// "termination race" as a monotonic first-writer. An Unknown result never
// ends the run — per spec.md §7, an engine returning UNKNOWN "does not
// contribute".
func (b *Bus) Join(winnerRank int, result solver.Result, model []int32) bool {
	if result == solver.Unknown {
		return false
	}

	b.mu.Lock()
	if b.resultSet {
		b.mu.Unlock()
		return false
	}
	b.resultSet = true
	b.result = result
	b.model = model
	b.winnerRank = winnerRank
	toInterrupt := append([]Interruptible(nil), b.interruptables...)
	b.mu.Unlock()

	for _, e := range toInterrupt {
		e.SetInterrupt()
	}

	b.ending.StoreRelease(true)
	if b.parent != nil {
		b.parent.Join(winnerRank, result, model)
		return true
	}

	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
	return true
}

// Result returns the recorded result, model, and winning rank. Valid only
// once Ending() is true.
func (b *Bus) Result() (solver.Result, []int32, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result, b.model, b.winnerRank
}

// Wait blocks until a result is recorded or ctx is done, returning the same
// triple as Result. The root bus is the one whose cond is ever broadcast
// (Join on a child bus forwards up instead), so Wait must always be called
// on the root.
func (b *Bus) Wait(ctx context.Context) (solver.Result, []int32, int) {
	var abortMu sync.Mutex
	aborted := false

	done := make(chan struct{})
	go func() {
		b.mu.Lock()
		for !b.resultSet {
			abortMu.Lock()
			stop := aborted
			abortMu.Unlock()
			if stop {
				break
			}
			b.cond.Wait()
		}
		b.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		abortMu.Lock()
		aborted = true
		abortMu.Unlock()
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
		<-done
	}
	return b.Result()
}
