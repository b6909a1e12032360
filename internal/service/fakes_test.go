package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/models"
	pgRepo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/sessiongate/internal/repository/redis"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[models.SessionRef]*models.Session
	overrides map[models.SessionRef][]*models.ConfigOverride
	casCalls  int
	// casDelay widens the window between read and write in race tests.
	casDelay time.Duration
	getErr   error
}

func newFakeSessionRepo(sessions ...*models.Session) *fakeSessionRepo {
	r := &fakeSessionRepo{
		sessions:  map[models.SessionRef]*models.Session{},
		overrides: map[models.SessionRef][]*models.ConfigOverride{},
	}
	for _, s := range sessions {
		r.sessions[s.Ref()] = s.Clone()
	}
	return r
}

func (r *fakeSessionRepo) Get(_ context.Context, ref models.SessionRef) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.sessions[ref]
	if !ok {
		return nil, pgRepo.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *fakeSessionRepo) CompareAndSetStatus(ctx context.Context, ch pgRepo.StatusChange) (bool, error) {
	if r.casDelay > 0 {
		time.Sleep(r.casDelay)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.casCalls++

	s, ok := r.sessions[ch.Ref]
	if !ok || s.Status != ch.From {
		return false, nil
	}
	s.Status = ch.To
	if ch.StartedAt != nil {
		s.StartedAt = ch.StartedAt
	}
	if ch.EndedAt != nil {
		s.EndedAt = ch.EndedAt
	}
	if ch.ActualDurationMinutes != nil {
		s.ActualDurationMinutes = ch.ActualDurationMinutes
	}
	return true, nil
}

func (r *fakeSessionRepo) GetConfigOverrides(_ context.Context, s *models.Session) ([]*models.ConfigOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overrides[s.Ref()], nil
}

func (r *fakeSessionRepo) stored(ref models.SessionRef) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[ref].Clone()
}

type fakeReportRepo struct {
	reports map[string]*models.SessionReport
}

func (r *fakeReportRepo) Get(_ context.Context, ref models.SessionRef, studentUserID string) (*models.SessionReport, error) {
	if rep, ok := r.reports[ref.String()+":"+studentUserID]; ok {
		return rep, nil
	}
	return nil, pgRepo.ErrNotFound
}

type fakeMeeting struct {
	closed atomic.Int32
	err    error
}

func (m *fakeMeeting) CloseRoom(context.Context, string) error {
	m.closed.Add(1)
	return m.err
}

type fakeProducer struct {
	mu         sync.Mutex
	status     []string
	attendance []string
}

func (p *fakeProducer) PublishSessionStatus(_ context.Context, topic string, _ kafka.SessionStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = append(p.status, topic)
	return nil
}

func (p *fakeProducer) PublishAttendance(_ context.Context, topic string, _ kafka.AttendanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attendance = append(p.attendance, topic)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) statusTopics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.status...)
}

func (p *fakeProducer) attendanceTopics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.attendance...)
}

type fixture struct {
	clock      *fakeClock
	sessions   *fakeSessionRepo
	reports    *fakeReportRepo
	meeting    *fakeMeeting
	prod       *fakeProducer
	resolver   Resolver
	status     StatusService
	attendance AttendanceService
}

func newFixture(t *testing.T, sessions ...*models.Session) *fixture {
	t.Helper()

	l := logger.InitializeTestZapLogger()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })

	f := &fixture{
		clock:    &fakeClock{now: at(9, 0)},
		sessions: newFakeSessionRepo(sessions...),
		reports:  &fakeReportRepo{reports: map[string]*models.SessionReport{}},
		meeting:  &fakeMeeting{},
		prod:     &fakeProducer{},
	}
	f.resolver = NewResolver(f.sessions, models.DefaultSessionConfiguration(), l)
	f.status = NewStatusService(f.resolver, f.sessions, f.meeting, f.prod, f.clock, lifecycle.OngoingUnconditional, l)
	f.attendance = NewAttendanceService(
		f.status, f.resolver,
		redisRepo.NewRedisAttendanceRepository(cli, time.Hour, l),
		f.reports, f.prod, f.clock, l,
	)
	return f
}

func scheduledSession(kind models.SessionKind, id string, status models.SessionStatus) *models.Session {
	sched := at(10, 0)
	return &models.Session{
		ID:              id,
		Kind:            kind,
		AcademyID:       "academy-1",
		Status:          status,
		ScheduledAt:     &sched,
		DurationMinutes: 60,
		MeetingRoomName: "room-" + id,
		TeacherUserID:   "teacher-1",
		StudentUserID:   "student-1",
	}
}

var (
	teacher = Caller{UserID: "teacher-1", Role: models.RoleTeacher}
	student = Caller{UserID: "student-1", Role: models.RoleStudent}
)

var errBoom = errors.New("boom")
