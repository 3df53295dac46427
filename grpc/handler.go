package grpc

import (
	"context"
	"errors"
	"io"
	"log"
	"net"

	"jsonecho_server/common"
	"jsonecho_server/echo"
	"jsonecho_server/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// logUnaryInterceptor handles logging and draining for unary RPCs
func logUnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	// Check draining state before processing
	if common.Draining.Load() {
		return nil, status.Error(codes.Unavailable, "server is shutting down")
	}

	resp, err := handler(ctx, req)

	if !common.Quiet {
		if err != nil {
			log.Printf("[gRPC] %s error: %v", info.FullMethod, err)
		} else {
			log.Printf("[gRPC] %s OK", info.FullMethod)
		}
	}

	return resp, err
}

// logStreamInterceptor handles logging and draining for streaming RPCs
// (only the health Watch stream today)
func logStreamInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if common.Draining.Load() {
		return status.Error(codes.Unavailable, "server is shutting down")
	}

	err := handler(srv, ss)

	if !common.Quiet && err != nil && err != io.EOF {
		log.Printf("[gRPC] %s stream error: %v", info.FullMethod, err)
	}

	return err
}

// Description returns the endpoint description for startup logging
func Description() string {
	return "  - jsonecho.v1.EchoService/Echo -> gRPC JSON echo (delay via \"delay\" metadata)"
}

// Server represents a standalone gRPC server
type Server struct {
	addr         string
	grpcServer   *grpc.Server
	listener     net.Listener
	healthServer *health.Server
}

// NewServer creates a new gRPC server instance
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
	}
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.Serve(ln)
	return nil
}

// Serve serves on ln in the background
func (s *Server) Serve(ln net.Listener) {
	s.listener = ln

	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(10*1024*1024), // 10MB max receive
		grpc.MaxSendMsgSize(10*1024*1024), // 10MB max send
		grpc.UnaryInterceptor(logUnaryInterceptor),
		grpc.StreamInterceptor(logStreamInterceptor),
	)

	RegisterEchoServiceServer(s.grpcServer, &echoServer{})

	s.healthServer = health.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
	s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Printf("[gRPC] starting on %s", ln.Addr())
		if err := s.grpcServer.Serve(ln); err != nil {
			log.Printf("[gRPC] stopped: %v", err)
		}
	}()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.grpcServer == nil {
		return nil
	}

	// Mark as not serving before shutdown
	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Printf("[gRPC] shutdown complete")
		return nil
	case <-ctx.Done():
		log.Printf("[gRPC] shutdown timeout, forcing")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

// echoServer implements the gRPC echo service
type echoServer struct{}

func (s *echoServer) Echo(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	out, err := echo.Echo(ctx, []byte(req.GetValue()), delayFromMetadata(ctx))
	metrics.ObserveEcho("grpc", echo.Outcome(err))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(string(out)), nil
}

func delayFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(DelayMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

// toStatus maps echo errors onto gRPC status codes
func toStatus(err error) error {
	switch {
	case echo.IsClientError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, echo.ErrCancelled.Error())
	case errors.Is(err, echo.ErrCancelled):
		return status.Error(codes.Canceled, echo.ErrCancelled.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
