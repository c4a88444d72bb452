package gateway

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func startHealthServer(t *testing.T) (string, *health.Server) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String(), hs
}

func TestHealthProbe_ServingAndNotServing(t *testing.T) {
	addr, hs := startHealthServer(t)
	hs.SetServingStatus("leadconsole", healthpb.HealthCheckResponse_SERVING)

	p, err := NewHealthProbe(addr, "leadconsole")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, p.Ping(ctx))

	hs.SetServingStatus("leadconsole", healthpb.HealthCheckResponse_NOT_SERVING)
	assert.ErrorIs(t, p.Ping(ctx), ErrUnavailable)
}

func TestHealthProbe_UnknownService(t *testing.T) {
	addr, _ := startHealthServer(t)
	p, err := NewHealthProbe(addr, "missing")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.ErrorIs(t, p.Ping(ctx), ErrNotFound)
}

func TestMapRPCError(t *testing.T) {
	assert.Nil(t, mapRPCError(nil))
	assert.Equal(t, ErrUnauthorized, mapRPCError(status.Error(codes.Unauthenticated, "x")))
	assert.Equal(t, ErrUnauthorized, mapRPCError(status.Error(codes.PermissionDenied, "x")))
	assert.Equal(t, ErrUnavailable, mapRPCError(status.Error(codes.Unavailable, "x")))
	assert.Equal(t, ErrUnavailable, mapRPCError(status.Error(codes.DeadlineExceeded, "x")))

	other := status.Error(codes.Internal, "x")
	got := mapRPCError(other)
	assert.True(t, errors.Is(got, other))
}
