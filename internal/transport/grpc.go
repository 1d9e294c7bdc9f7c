package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware/v2"
	grpcprom "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"code.hybscloud.com/distsat/internal/obs"
)

const mdRequestID = "x-distsat-request-id"

// requestIDInterceptor stamps every inbound call with a request id for log
// correlation, mirroring learn-grpc/server/main.go's AddIDToCtx convention.
func requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := uuid.NewString()
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(mdRequestID); len(ids) > 0 {
			id = ids[0]
		}
	}
	ctx = metadata.AppendToOutgoingContext(ctx, mdRequestID, id)
	return handler(ctx, req)
}

// requestIDClientInterceptor stamps an outgoing request id so the server's
// requestIDInterceptor reuses it instead of minting its own.
func requestIDClientInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx = metadata.AppendToOutgoingContext(ctx, mdRequestID, uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}

// GrpcLayer is a Layer backed by a gRPC server per rank dialing every other
// rank as a client, grounded on learn-grpc's interceptor-chain/metrics
// pattern. Messages carry their routing metadata (tag and sender rank) as
// outgoing gRPC metadata and their body as a raw google.protobuf.BytesValue,
// sidestepping a dedicated .proto schema for what is, on the wire, an
// opaque clause-wire-codec payload.
type GrpcLayer struct {
	rank  int
	addrs []string

	server *grpc.Server
	lis    net.Listener
	log    *obs.Logger

	mu     sync.Mutex
	conns  []*grpc.ClientConn
	inbox  map[uint32]chan memMsg
	closed bool
}

const (
	mdTag  = "x-distsat-tag"
	mdFrom = "x-distsat-from"
)

// NewGrpcLayer starts a gRPC server on addrs[rank] and lazily dials the
// remaining ranks on first use. addrs must be ordered by rank.
func NewGrpcLayer(rank int, addrs []string, log *obs.Logger) (*GrpcLayer, error) {
	if rank < 0 || rank >= len(addrs) {
		return nil, fmt.Errorf("transport: rank %d out of range for %d addrs", rank, len(addrs))
	}
	lis, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", addrs[rank], err)
	}

	l := &GrpcLayer{
		rank:  rank,
		addrs: addrs,
		lis:   lis,
		log:   log,
		conns: make([]*grpc.ClientConn, len(addrs)),
		inbox: make(map[uint32]chan memMsg),
	}

	l.server = grpc.NewServer(
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			grpcprom.UnaryServerInterceptor, requestIDInterceptor, l.recoverInterceptor,
		)),
	)
	l.server.RegisterService(&transportServiceDesc, l)
	grpcprom.Register(l.server)

	go func() {
		if err := l.server.Serve(lis); err != nil {
			log.Sugar().Warnw("grpc transport server stopped", "rank", rank, "error", err)
		}
	}()

	return l, nil
}

func (l *GrpcLayer) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Sugar().Errorw("panic in transport handler", "method", info.FullMethod, "recovered", r)
			err = status.Errorf(codes.Internal, "transport: panic: %v", r)
		}
	}()
	return handler(ctx, req)
}

// Deliver is the single RPC this layer exposes: an opaque byte payload
// routed locally by the tag/from carried in request metadata.
func (l *GrpcLayer) Deliver(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "transport: missing metadata")
	}
	tag, from, err := parseRoutingMetadata(md)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ch := l.inboxFor(tag)
	select {
	case ch <- memMsg{from: from, payload: in.GetValue()}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return wrapperspb.Bytes(nil), nil
}

func parseRoutingMetadata(md metadata.MD) (tag uint32, from int, err error) {
	tagVals := md.Get(mdTag)
	fromVals := md.Get(mdFrom)
	if len(tagVals) == 0 || len(fromVals) == 0 {
		return 0, 0, fmt.Errorf("transport: missing tag/from metadata")
	}
	if _, err := fmt.Sscanf(tagVals[0], "%d", &tag); err != nil {
		return 0, 0, fmt.Errorf("transport: bad tag metadata: %w", err)
	}
	if _, err := fmt.Sscanf(fromVals[0], "%d", &from); err != nil {
		return 0, 0, fmt.Errorf("transport: bad from metadata: %w", err)
	}
	return tag, from, nil
}

func (l *GrpcLayer) inboxFor(tag uint32) chan memMsg {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.inbox[tag]
	if !ok {
		ch = make(chan memMsg, 256)
		l.inbox[tag] = ch
	}
	return ch
}

func (l *GrpcLayer) clientFor(to int) (*transportClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.conns[to] == nil {
		conn, err := grpc.NewClient(l.addrs[to], grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUnaryInterceptor(grpcmiddleware.ChainUnaryClient(
				grpcprom.UnaryClientInterceptor, requestIDClientInterceptor,
			)))
		if err != nil {
			return nil, fmt.Errorf("transport: dial rank %d: %w", to, err)
		}
		l.conns[to] = conn
	}
	return &transportClient{cc: l.conns[to]}, nil
}

func (l *GrpcLayer) Rank() int      { return l.rank }
func (l *GrpcLayer) WorldSize() int { return len(l.addrs) }

func (l *GrpcLayer) Send(ctx context.Context, to int, tag uint32, payload []byte) error {
	client, err := l.clientFor(to)
	if err != nil {
		return err
	}
	ctx = outgoingRoutingContext(ctx, tag, l.rank)
	_, err = client.Deliver(ctx, wrapperspb.Bytes(payload))
	return err
}

func (l *GrpcLayer) TrySend(to int, tag uint32, payload []byte) (bool, error) {
	client, err := l.clientFor(to)
	if err != nil {
		return false, err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = outgoingRoutingContext(ctx, tag, l.rank)
		if _, err := client.Deliver(ctx, wrapperspb.Bytes(payload)); err != nil {
			l.log.Sugar().Warnw("async transport send failed", "to", to, "tag", tag, "error", err)
		}
	}()
	return true, nil
}

func (l *GrpcLayer) Recv(ctx context.Context, tag uint32) (int, []byte, error) {
	select {
	case m := <-l.inboxFor(tag):
		return m.from, m.payload, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (l *GrpcLayer) Broadcast(ctx context.Context, root int, payload []byte) ([]byte, error) {
	const broadcastTag uint32 = 0xB00DCA57
	if l.rank == root {
		for to := range l.addrs {
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

func (l *GrpcLayer) AllGather(ctx context.Context, payload []byte) ([][]byte, error) {
	const allGatherTag uint32 = 0xA116A78E
	for to := range l.addrs {
		if to == l.rank {
			continue
		}
		if err := l.Send(ctx, to, allGatherTag, payload); err != nil {
			return nil, err
		}
	}
	out := make([][]byte, len(l.addrs))
	out[l.rank] = payload
	for i := 0; i < len(l.addrs)-1; i++ {
		from, got, err := l.Recv(ctx, allGatherTag)
		if err != nil {
			return nil, err
		}
		out[from] = got
	}
	return out, nil
}

// ThreadingLevel reports Serialized: one goroutine per rank drives the
// gRPC event loop, satisfying spec.md §6's "at least SERIALIZED" floor.
func (l *GrpcLayer) ThreadingLevel() ThreadingLevel { return ThreadingSerialized }

func (l *GrpcLayer) Close() error {
	l.mu.Lock()
	l.closed = true
	conns := l.conns
	l.mu.Unlock()

	l.server.GracefulStop()
	for _, c := range conns {
		if c != nil {
			_ = c.Close()
		}
	}
	return nil
}

func outgoingRoutingContext(ctx context.Context, tag uint32, from int) context.Context {
	return metadata.AppendToOutgoingContext(ctx, mdTag, fmt.Sprintf("%d", tag), mdFrom, fmt.Sprintf("%d", from))
}
