package transport_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/distsat/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestMemLayerSendRecv(t *testing.T) {
	layers := transport.NewMemCluster(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	var recvFrom int
	var recvPayload []byte
	go func() {
		defer wg.Done()
		recvFrom, recvPayload, _ = layers[1].Recv(ctx, 42)
	}()

	require.NoError(t, layers[0].Send(ctx, 1, 42, []byte("hello")))
	wg.Wait()

	require.Equal(t, 0, recvFrom)
	require.Equal(t, []byte("hello"), recvPayload)
}

func TestMemLayerBroadcast(t *testing.T) {
	layers := transport.NewMemCluster(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for r := 1; r < 4; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			got, err := layers[rank].Broadcast(ctx, 0, nil)
			require.NoError(t, err)
			results[rank] = got
		}(r)
	}
	time.Sleep(20 * time.Millisecond)
	got, err := layers[0].Broadcast(ctx, 0, []byte("root-payload"))
	require.NoError(t, err)
	results[0] = got
	wg.Wait()

	for r := 0; r < 4; r++ {
		require.Equal(t, []byte("root-payload"), results[r])
	}
}

func TestMemLayerAllGather(t *testing.T) {
	const n = 4
	layers := transport.NewMemCluster(n)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	results := make([][][]byte, n)
	var wg sync.WaitGroup
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			payload := []byte{byte('a' + rank)}
			got, err := layers[rank].AllGather(ctx, payload)
			require.NoError(t, err)
			results[rank] = got
		}(r)
	}
	wg.Wait()

	for r := 0; r < n; r++ {
		require.Len(t, results[r], n)
		for p := 0; p < n; p++ {
			require.Equal(t, []byte{byte('a' + p)}, results[r][p])
		}
	}
}

func TestMemLayerTrySendNonBlocking(t *testing.T) {
	layers := transport.NewMemCluster(2)
	ok, err := layers[0].TrySend(1, 7, []byte("x"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemLayerCloseRejectsFurtherSends(t *testing.T) {
	layers := transport.NewMemCluster(2)
	require.NoError(t, layers[1].Close())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := layers[0].Send(ctx, 1, 1, []byte("x"))
	require.ErrorIs(t, err, transport.ErrClosed)
}
