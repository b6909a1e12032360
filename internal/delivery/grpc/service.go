package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/delivery"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/internal/service"
	pkgErrors "github.com/vogiaan1904/sessiongate/pkg/errors"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
	resp "github.com/vogiaan1904/sessiongate/pkg/response"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"
)

type grpcService struct {
	statusSvc     service.StatusService
	attendanceSvc service.AttendanceService
	l             logger.Logger
}

func NewGrpcService(statusSvc service.StatusService, attendanceSvc service.AttendanceService, l logger.Logger) SessionGateServer {
	return &grpcService{
		statusSvc:     statusSvc,
		attendanceSvc: attendanceSvc,
		l:             l,
	}
}

func (s *grpcService) GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := s.sessionInput(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.statusSvc.GetStatus(ctx, in)
	if err != nil {
		s.l.Debugf(ctx, "delivery.grpc.GetStatus: %v", err)
		return nil, s.mapGRPCError(err)
	}

	return s.toStruct(ctx, delivery.NewStatusResponse(out))
}

func (s *grpcService) GetAttendance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := s.sessionInput(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.attendanceSvc.GetAttendance(ctx, in)
	if err != nil {
		s.l.Debugf(ctx, "delivery.grpc.GetAttendance: %v", err)
		return nil, s.mapGRPCError(err)
	}

	return s.toStruct(ctx, delivery.NewAttendanceResponse(out))
}

func (s *grpcService) sessionInput(ctx context.Context, req *structpb.Struct) (service.SessionInput, error) {
	p, err := auth.FromContext(ctx)
	if err != nil {
		return service.SessionInput{}, s.mapGRPCError(err)
	}

	fields := req.GetFields()
	id := fields["session_id"].GetStringValue()
	kind := models.SessionKind(fields["session_type"].GetStringValue())
	if id == "" || (kind != "" && !kind.IsValid()) {
		return service.SessionInput{}, resp.ParseGRPCError(pkgErrors.NewGRPCError(codes.InvalidArgument, delivery.ErrInvalidRequest))
	}

	return service.SessionInput{
		SessionID: id,
		Kind:      kind,
		Caller:    service.Caller{UserID: p.UserID, Role: p.Role},
	}, nil
}

// toStruct goes through JSON so the gRPC payload matches the HTTP body.
func (s *grpcService) toStruct(ctx context.Context, v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		s.l.Errorf(ctx, "delivery.grpc.toStruct: %v", err)
		return nil, resp.ParseGRPCError(err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		s.l.Errorf(ctx, "delivery.grpc.toStruct: %v", err)
		return nil, resp.ParseGRPCError(err)
	}

	out, err := structpb.NewStruct(m)
	if err != nil {
		s.l.Errorf(ctx, "delivery.grpc.toStruct: %v", err)
		return nil, resp.ParseGRPCError(fmt.Errorf("build struct: %w", err))
	}
	return out, nil
}
