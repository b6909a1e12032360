package grpc

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/vogiaan1904/sessiongate/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs method, status code and latency of unary calls.
func LoggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = l.With(ctx, "method", info.FullMethod)

		res, err := handler(ctx, req)

		code := status.Code(err)
		if code == codes.Internal || code == codes.Unknown {
			l.Errorf(ctx, "gRPC %s %s %s: %v", info.FullMethod, code, time.Since(start), err)
		} else {
			l.Infof(ctx, "gRPC %s %s %s", info.FullMethod, code, time.Since(start))
		}
		return res, err
	}
}

// RecoveryInterceptor turns handler panics into codes.Internal.
func RecoveryInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				l.Errorf(ctx, "gRPC %s panic: %v\n%s", info.FullMethod, r, debug.Stack())
				err = status.Error(codes.Internal, "Internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// NewServer builds a gRPC server with recovery, logging and the given
// interceptors, in that order.
func NewServer(l logger.Logger, interceptors ...grpc.UnaryServerInterceptor) *grpc.Server {
	chain := append([]grpc.UnaryServerInterceptor{RecoveryInterceptor(l), LoggingInterceptor(l)}, interceptors...)
	return grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
}
