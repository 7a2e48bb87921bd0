package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	if err != nil {
		s.logger.Warn(ctx, "grpc_request", "method", info.FullMethod, "code", code.String(), "latency", time.Since(start).String(), "error", err)
		return resp, err
	}
	s.logger.Info(ctx, "grpc_request", "method", info.FullMethod, "code", code.String(), "latency", time.Since(start).String())
	return resp, nil
}
