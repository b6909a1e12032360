package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/sessiongate/config"
	"github.com/vogiaan1904/sessiongate/internal/attendance"
	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/internal/service"
	pkgGrpc "github.com/vogiaan1904/sessiongate/pkg/grpc"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

var jwtCfg = config.JWTConfig{Secret: "test-secret"}

type fakeStatus struct {
	service.StatusService
	last service.SessionInput
	err  error
}

func (f *fakeStatus) GetStatus(_ context.Context, in service.SessionInput) (*service.StatusOutput, error) {
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &service.StatusOutput{
		Session:  &models.Session{ID: in.SessionID, Kind: models.SessionKindInteractive, Status: models.SessionStatusCompleted},
		Decision: lifecycle.Decide(lifecycle.DecisionInput{Status: models.SessionStatusCompleted}, lifecycle.OngoingUnconditional),
	}, nil
}

type fakeAttendance struct {
	service.AttendanceService
}

func (fakeAttendance) GetAttendance(_ context.Context, in service.SessionInput) (*service.AttendanceOutput, error) {
	return &service.AttendanceOutput{
		Status: &service.StatusOutput{
			Session: &models.Session{ID: in.SessionID, Kind: models.SessionKindQuran, Status: models.SessionStatusCompleted},
		},
		Summary: attendance.Summary{
			HasAttendance:   true,
			Status:          models.AttendanceStatusAttended,
			DurationMinutes: 55,
			FromReport:      true,
		},
	}, nil
}

func dial(t *testing.T, st *fakeStatus) SessionGateClient {
	t.Helper()
	l := logger.InitializeTestZapLogger()

	lis := bufconn.Listen(1 << 20)
	srv := pkgGrpc.NewServer(l, AuthInterceptor(auth.NewJWTVerifier(jwtCfg)))
	RegisterSessionGateServer(srv, NewGrpcService(st, fakeAttendance{}, l))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewSessionGateClient(conn)
}

func authed(t *testing.T) context.Context {
	t.Helper()
	tok, err := auth.Sign(jwtCfg, auth.Principal{UserID: "teacher-1", Role: models.RoleTeacher}, time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestGetStatus(t *testing.T) {
	st := &fakeStatus{}
	cli := dial(t, st)

	out, err := cli.GetStatus(authed(t), request(t, map[string]any{"session_id": "9", "session_type": "interactive"}))
	require.NoError(t, err)

	f := out.GetFields()
	assert.Equal(t, "completed", f["status"].GetStringValue())
	assert.Equal(t, "Session ended", f["message"].GetStringValue())
	assert.Equal(t, "bg-gray-400 cursor-not-allowed", f["button_class"].GetStringValue())
	assert.False(t, f["can_join"].GetBoolValue())
	assert.Equal(t, "interactive", f["session_type"].GetStringValue())

	assert.Equal(t, "teacher-1", st.last.Caller.UserID)
	assert.Equal(t, models.SessionKindInteractive, st.last.Kind)
}

func TestGetStatus_Errors(t *testing.T) {
	st := &fakeStatus{}
	cli := dial(t, st)

	_, err := cli.GetStatus(context.Background(), request(t, map[string]any{"session_id": "9"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = cli.GetStatus(authed(t), request(t, map[string]any{"session_type": "quran"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	st.err = service.ErrSessionNotFound
	_, err = cli.GetStatus(authed(t), request(t, map[string]any{"session_id": "9"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	st.err = assert.AnError
	_, err = cli.GetStatus(authed(t), request(t, map[string]any{"session_id": "9"}))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestGetAttendance(t *testing.T) {
	cli := dial(t, &fakeStatus{})

	out, err := cli.GetAttendance(authed(t), request(t, map[string]any{"session_id": "42"}))
	require.NoError(t, err)

	f := out.GetFields()
	assert.Equal(t, "attended", f["attendance_status"].GetStringValue())
	assert.EqualValues(t, 55, f["duration_minutes"].GetNumberValue())
	assert.True(t, f["from_report"].GetBoolValue())
	assert.Equal(t, "completed", f["session_status"].GetStringValue())
}
