package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/transport"
	"github.com/stretchr/testify/require"
)

func freeAddrs(t *testing.T, n int) []string {
	t.Helper()
	addrs := make([]string, n)
	for i := range addrs {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addrs[i] = lis.Addr().String()
		require.NoError(t, lis.Close())
	}
	return addrs
}

func newGrpcCluster(t *testing.T, n int) []*transport.GrpcLayer {
	t.Helper()
	log, err := obs.NewLogger(0)
	require.NoError(t, err)

	addrs := freeAddrs(t, n)
	layers := make([]*transport.GrpcLayer, n)
	for r := 0; r < n; r++ {
		l, err := transport.NewGrpcLayer(r, addrs, log)
		require.NoError(t, err)
		layers[r] = l
	}
	t.Cleanup(func() {
		for _, l := range layers {
			_ = l.Close()
		}
	})
	return layers
}

func TestGrpcLayerSendRecv(t *testing.T) {
	layers := newGrpcCluster(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	var from int
	var payload []byte
	go func() {
		from, payload, _ = layers[1].Recv(ctx, 11)
		close(done)
	}()

	require.NoError(t, layers[0].Send(ctx, 1, 11, []byte("distsat")))
	<-done

	require.Equal(t, 0, from)
	require.Equal(t, []byte("distsat"), payload)
}

func TestGrpcLayerThreadingLevel(t *testing.T) {
	layers := newGrpcCluster(t, 1)
	require.Equal(t, transport.ThreadingSerialized, layers[0].ThreadingLevel())
}
