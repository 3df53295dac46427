package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"jsonecho_server/common"
	"jsonecho_server/echo"

	"github.com/alecthomas/assert/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func setupTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	common.Quiet = true

	ln := bufconn.Listen(1024 * 1024)
	server := NewServer("bufnet")
	server.Serve(ln)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return conn
}

func TestEcho(t *testing.T) {
	client := NewEchoClient(setupTestServer(t))

	resp, err := client.Echo(context.Background(), wrapperspb.String(`{ "data" : 1.0 }`))
	assert.NoError(t, err)
	assert.Equal(t, `{"data":1.0}`, resp.GetValue())
}

func TestEchoInvalidJSON(t *testing.T) {
	client := NewEchoClient(setupTestServer(t))

	_, err := client.Echo(context.Background(), wrapperspb.String(`22{"data":1.0}`))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Echo(context.Background(), wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEchoDelay(t *testing.T) {
	client := NewEchoClient(setupTestServer(t))

	ctx := metadata.AppendToOutgoingContext(context.Background(), DelayMetadataKey, "1")
	start := time.Now()
	resp, err := client.Echo(ctx, wrapperspb.String(`[1,2]`))
	assert.NoError(t, err)
	assert.True(t, time.Since(start) >= 950*time.Millisecond)
	assert.Equal(t, `[1,2]`, resp.GetValue())
}

func TestEchoBadDelay(t *testing.T) {
	client := NewEchoClient(setupTestServer(t))

	ctx := metadata.AppendToOutgoingContext(context.Background(), DelayMetadataKey, "61")
	start := time.Now()
	_, err := client.Echo(ctx, wrapperspb.String(`{}`))
	assert.True(t, time.Since(start) < time.Second)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "Too long delay 61")
}

func TestEchoDeadlineCutsDelay(t *testing.T) {
	client := NewEchoClient(setupTestServer(t))

	ctx := metadata.AppendToOutgoingContext(context.Background(), DelayMetadataKey, "30")
	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Echo(ctx, wrapperspb.String(`{}`))
	assert.True(t, time.Since(start) < 5*time.Second)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := setupTestServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	assert.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.Internal, status.Code(toStatus(errors.New("boom"))))
	assert.Equal(t, codes.Canceled, status.Code(toStatus(fmt.Errorf("%w: %w", echo.ErrCancelled, context.Canceled))))
}
