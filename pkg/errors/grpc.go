package errors

import (
	"google.golang.org/grpc/codes"
)

type GRPCError struct {
	Message  string
	GrpcCode codes.Code
}

func NewGRPCError(grpcCode codes.Code, be *BusinessError) *GRPCError {
	return &GRPCError{
		Message:  be.Error(),
		GrpcCode: grpcCode,
	}
}

func (e GRPCError) Error() string {
	return e.Message
}
