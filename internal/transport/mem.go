package transport

import (
	"context"
	"fmt"
	"sync"
)

// memLayer is an in-process, channel-based Layer stub used by tests to
// exercise the global sharing strategies without a network, per spec.md §9's
// suggestion that collectives be abstracted behind a small transport trait
// so single-process tests can stub an in-memory all-gather.
type memLayer struct {
	rank  int
	world []*memLayer

	mu     sync.Mutex
	inbox  map[uint32]chan memMsg
	closed bool
}

type memMsg struct {
	from    int
	payload []byte
}

// NewMemCluster builds n memLayer instances wired to each other, indexed by
// rank 0..n-1.
func NewMemCluster(n int) []Layer {
	if n < 1 {
		panic("transport: cluster size must be >= 1")
	}
	layers := make([]*memLayer, n)
	for i := range layers {
		layers[i] = &memLayer{rank: i, inbox: make(map[uint32]chan memMsg)}
	}
	for i := range layers {
		layers[i].world = layers
	}
	out := make([]Layer, n)
	for i, l := range layers {
		out[i] = l
	}
	return out
}

func (l *memLayer) Rank() int      { return l.rank }
func (l *memLayer) WorldSize() int { return len(l.world) }

func (l *memLayer) inboxFor(tag uint32) chan memMsg {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.inbox[tag]
	if !ok {
		ch = make(chan memMsg, 64)
		l.inbox[tag] = ch
	}
	return ch
}

func (l *memLayer) Send(ctx context.Context, to int, tag uint32, payload []byte) error {
	if to < 0 || to >= len(l.world) {
		return fmt.Errorf("transport: rank %d out of range", to)
	}
	peer := l.world[to]
	if peer.isClosed() {
		return ErrClosed
	}
	cp := append([]byte(nil), payload...)
	select {
	case peer.inboxFor(tag) <- memMsg{from: l.rank, payload: cp}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *memLayer) TrySend(to int, tag uint32, payload []byte) (bool, error) {
	if to < 0 || to >= len(l.world) {
		return false, fmt.Errorf("transport: rank %d out of range", to)
	}
	peer := l.world[to]
	if peer.isClosed() {
		return false, ErrClosed
	}
	cp := append([]byte(nil), payload...)
	select {
	case peer.inboxFor(tag) <- memMsg{from: l.rank, payload: cp}:
		return true, nil
	default:
		return false, nil
	}
}

func (l *memLayer) Recv(ctx context.Context, tag uint32) (int, []byte, error) {
	if l.isClosed() {
		return 0, nil, ErrClosed
	}
	select {
	case m := <-l.inboxFor(tag):
		return m.from, m.payload, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (l *memLayer) Broadcast(ctx context.Context, root int, payload []byte) ([]byte, error) {
	const broadcastTag uint32 = 0xB00DCA57
	if l.rank == root {
		for to := range l.world {
			if to == root {
				continue
			}
			if err := l.Send(ctx, to, broadcastTag, payload); err != nil {
				return nil, err
			}
		}
		return payload, nil
	}
	_, got, err := l.Recv(ctx, broadcastTag)
	return got, err
}

func (l *memLayer) AllGather(ctx context.Context, payload []byte) ([][]byte, error) {
	const allGatherTag uint32 = 0xA116A78E
	for to := range l.world {
		if to == l.rank {
			continue
		}
		if err := l.Send(ctx, to, allGatherTag, payload); err != nil {
			return nil, err
		}
	}
	out := make([][]byte, len(l.world))
	out[l.rank] = payload
	for i := 0; i < len(l.world)-1; i++ {
		from, got, err := l.Recv(ctx, allGatherTag)
		if err != nil {
			return nil, err
		}
		out[from] = got
	}
	return out, nil
}

func (l *memLayer) ThreadingLevel() ThreadingLevel { return ThreadingMultiple }

func (l *memLayer) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *memLayer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
