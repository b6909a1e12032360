package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnknownKind = errors.New("unknown session kind")
)

// StatusChange is a compare-and-swap on a session's status. Nil time and
// duration fields leave the stored value untouched.
type StatusChange struct {
	Ref                   models.SessionRef
	From                  models.SessionStatus
	To                    models.SessionStatus
	StartedAt             *time.Time
	EndedAt               *time.Time
	ActualDurationMinutes *int
}

type SessionRepository interface {
	Get(ctx context.Context, ref models.SessionRef) (*models.Session, error)
	// CompareAndSetStatus applies the change only while the stored status
	// still equals From. It reports whether this call won.
	CompareAndSetStatus(ctx context.Context, ch StatusChange) (bool, error)
	// GetConfigOverrides returns academy settings then the circle/course
	// override, either of which may be nil.
	GetConfigOverrides(ctx context.Context, s *models.Session) ([]*models.ConfigOverride, error)
}

type ReportRepository interface {
	Get(ctx context.Context, ref models.SessionRef, studentUserID string) (*models.SessionReport, error)
}

type pgSessionRepository struct {
	pool *pgxpool.Pool
	l    logger.Logger
}

func NewSessionRepository(pool *pgxpool.Pool, l logger.Logger) SessionRepository {
	return &pgSessionRepository{pool: pool, l: l}
}

func (r *pgSessionRepository) Get(ctx context.Context, ref models.SessionRef) (*models.Session, error) {
	t, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	var (
		s                               models.Session
		status                          string
		duration, actual                *int
		room, teacher, student, group   *string
		scheduledAt, startedAt, endedAt *time.Time
	)
	err = r.pool.QueryRow(ctx, t.selectQuery(), ref.ID).Scan(
		&s.ID, &s.AcademyID, &status, &scheduledAt, &duration, &room,
		&startedAt, &endedAt, &actual, &teacher, &student, &group, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgres.session.Get: %v", err)
		return nil, err
	}

	s.Kind = ref.Kind
	s.Status = models.SessionStatus(status)
	s.ScheduledAt = scheduledAt
	s.StartedAt = startedAt
	s.EndedAt = endedAt
	s.ActualDurationMinutes = actual
	if duration != nil {
		s.DurationMinutes = *duration
	}
	s.MeetingRoomName = deref(room)
	s.TeacherUserID = deref(teacher)
	s.StudentUserID = deref(student)
	switch ref.Kind {
	case models.SessionKindQuran:
		s.CircleID = deref(group)
	case models.SessionKindInteractive:
		s.CourseID = deref(group)
	}

	return &s, nil
}

func (r *pgSessionRepository) CompareAndSetStatus(ctx context.Context, ch StatusChange) (bool, error) {
	t, err := tableFor(ch.Ref.Kind)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx, t.casStatusQuery(),
		ch.Ref.ID, string(ch.From), string(ch.To), ch.StartedAt, ch.EndedAt, ch.ActualDurationMinutes,
	)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgres.session.CompareAndSetStatus: %v", err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *pgSessionRepository) GetConfigOverrides(ctx context.Context, s *models.Session) ([]*models.ConfigOverride, error) {
	academy, err := r.scanOverride(ctx,
		`SELECT preparation_minutes, ending_buffer_minutes, default_duration_minutes FROM academy_settings WHERE academy_id = $1`,
		s.AcademyID)
	if err != nil {
		return nil, err
	}

	t, err := tableFor(s.Kind)
	if err != nil {
		return nil, err
	}

	groupID := s.CircleID
	if s.Kind == models.SessionKindInteractive {
		groupID = s.CourseID
	}

	var group *models.ConfigOverride
	if q := t.groupOverrideQuery(); q != "" && groupID != "" {
		if group, err = r.scanOverride(ctx, q, groupID); err != nil {
			return nil, err
		}
	}

	return []*models.ConfigOverride{academy, group}, nil
}

func (r *pgSessionRepository) scanOverride(ctx context.Context, query, id string) (*models.ConfigOverride, error) {
	var o models.ConfigOverride
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.PreparationMinutes, &o.EndingBufferMinutes, &o.DefaultDurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.l.Errorf(ctx, "repository.postgres.session.scanOverride: %v", err)
		return nil, err
	}
	return &o, nil
}

type pgReportRepository struct {
	pool *pgxpool.Pool
	l    logger.Logger
}

func NewReportRepository(pool *pgxpool.Pool, l logger.Logger) ReportRepository {
	return &pgReportRepository{pool: pool, l: l}
}

func (r *pgReportRepository) Get(ctx context.Context, ref models.SessionRef, studentUserID string) (*models.SessionReport, error) {
	rep := models.SessionReport{SessionID: ref.ID, Kind: ref.Kind, StudentUserID: studentUserID}
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT attendance_status, actual_attendance_minutes, attendance_percentage::float8, is_late, late_minutes
		 FROM session_reports WHERE session_kind = $1 AND session_id = $2 AND student_user_id = $3`,
		string(ref.Kind), ref.ID, studentUserID,
	).Scan(&status, &rep.ActualAttendanceMinutes, &rep.AttendancePercentage, &rep.IsLate, &rep.LateMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgres.report.Get: %v", err)
		return nil, err
	}

	rep.AttendanceStatus = models.AttendanceStatus(status)
	return &rep, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
