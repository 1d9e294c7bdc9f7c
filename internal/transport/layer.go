// Package transport implements the messaging-layer contract: rank-addressed
// point-to-point send/recv plus the Broadcast and AllGather collectives that
// the global sharing strategies run over.
package transport

import (
	"context"
	"errors"
)

// ThreadingLevel mirrors the MPI-style threading support levels a transport
// can report. Global sharing strategies require at least ThreadingSerialized;
// anything less and the caller demotes to local-only sharing.
type ThreadingLevel int

const (
	ThreadingSingle ThreadingLevel = iota
	ThreadingFunneled
	ThreadingSerialized
	ThreadingMultiple
)

func (t ThreadingLevel) String() string {
	switch t {
	case ThreadingSingle:
		return "single"
	case ThreadingFunneled:
		return "funneled"
	case ThreadingSerialized:
		return "serialized"
	case ThreadingMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Supports reports whether this level satisfies a requirement level.
func (t ThreadingLevel) Supports(required ThreadingLevel) bool { return t >= required }

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("transport: layer closed")

// Layer is the rank-addressed messaging-layer contract from spec.md §6: one
// rank per process, point-to-point send/recv in blocking and non-blocking
// forms, and two collectives.
type Layer interface {
	// Rank returns this process's rank in [0, WorldSize).
	Rank() int
	// WorldSize returns the total number of participating ranks.
	WorldSize() int

	// Send blocks until payload has been handed to rank `to` under `tag`.
	Send(ctx context.Context, to int, tag uint32, payload []byte) error
	// TrySend attempts delivery without blocking the caller on the remote
	// rank's Recv. Returns (true, nil) once the send has been dispatched
	// (fire-and-forget); delivery errors past that point are logged, not
	// returned, matching spec.md §6's non-blocking-variant contract.
	TrySend(to int, tag uint32, payload []byte) (bool, error)
	// Recv blocks until a payload tagged `tag` arrives from any rank.
	Recv(ctx context.Context, tag uint32) (from int, payload []byte, err error)

	// Broadcast distributes root's payload to every rank; every rank
	// (including root) returns the same bytes.
	Broadcast(ctx context.Context, root int, payload []byte) ([]byte, error)
	// AllGather exchanges every rank's payload with every other rank,
	// returning a WorldSize-length slice indexed by rank.
	AllGather(ctx context.Context, payload []byte) ([][]byte, error)

	// ThreadingLevel reports the threading guarantee this layer provides.
	ThreadingLevel() ThreadingLevel

	// Close releases transport resources. Idempotent.
	Close() error
}
