package grpc

import (
	"github.com/vogiaan1904/sessiongate/internal/delivery"
	resp "github.com/vogiaan1904/sessiongate/pkg/response"
)

func (s *grpcService) mapGRPCError(err error) error {
	return resp.ParseGRPCError(delivery.MapGRPCError(err))
}
