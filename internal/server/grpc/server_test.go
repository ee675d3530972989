package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/greencrop/storefront/pkg/errorbank"
)

type fakeStore struct{ err error }

func (f *fakeStore) DB(context.Context) (*bun.DB, error) { return nil, f.err }

func TestHealthFollowsStoreChecker(t *testing.T) {
	hs := NewHealth()
	server := NewServer(zap.NewNop(), hs)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	store := &fakeStore{}
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, CheckStore(ctx, hs, store))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	store.err = errors.New("tunnel down")
	CheckStore(ctx, hs, store)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestUnaryInterceptorMapsErrors(t *testing.T) {
	intercept := unaryInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/storefront.Store/Invoice"}
	call := func(err error) error {
		_, got := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
			return nil, err
		})
		return got
	}

	assert.Equal(t, codes.NotFound, status.Code(call(errorbank.NotFound("order not found"))))
	assert.Equal(t, codes.Unavailable, status.Code(call(errorbank.Unavailable("store down"))))
	assert.Equal(t, codes.Internal, status.Code(call(errors.New("boom"))))
	assert.Equal(t, codes.PermissionDenied, status.Code(call(status.Error(codes.PermissionDenied, "no"))))

	resp, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
