// Package grpc runs the gRPC side of the auth server. It serves the
// standard grpc.health.v1 service so orchestrators can probe readiness.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/yapplr/yapplr/internal/logging"
)

// AuthServiceName is the health-checked service name.
const AuthServiceName = "yapplr.auth.AuthService"

type GRPCServer struct {
	address string
	logger  logging.Logger
	health  *health.Server
	srv     *grpc.Server
}

// NewGRPCServer builds a server whose health status starts as NOT_SERVING.
func NewGRPCServer(address string, l logging.Logger) *GRPCServer {
	s := &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		health:  health.NewServer(),
	}
	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.SetServing(false)
	return s
}

// SetServing flips the health status of both the overall server and the
// auth service.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(AuthServiceName, st)
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		s.srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	if err := s.srv.Serve(listen); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
