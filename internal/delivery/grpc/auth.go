package grpc

import (
	"context"
	"strings"

	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/delivery"
	resp "github.com/vogiaan1904/sessiongate/pkg/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// AuthInterceptor verifies the bearer token from the "authorization"
// metadata of every call on this service.
func AuthInterceptor(v auth.Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
			return handler(ctx, req)
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				token = auth.BearerToken(vals[0])
			}
		}

		p, err := v.Verify(token)
		if err != nil {
			return nil, resp.ParseGRPCError(delivery.MapGRPCError(err))
		}

		return handler(auth.WithPrincipal(ctx, p), req)
	}
}
