package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", "method", info.FullMethod, "code", code.String(), "error", err)
	}
	return resp, err
}
