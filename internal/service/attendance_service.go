package service

import (
	"context"
	"errors"

	"github.com/vogiaan1904/sessiongate/internal/attendance"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/sessiongate/internal/models"
	pgRepo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/sessiongate/internal/repository/redis"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

type AttendanceService interface {
	// Join records the caller entering the meeting. Joining again while an
	// event is open returns that event.
	Join(ctx context.Context, in SessionInput) (*JoinOutput, error)
	Leave(ctx context.Context, in SessionInput) (*LeaveOutput, error)
	GetAttendance(ctx context.Context, in SessionInput) (*AttendanceOutput, error)

	HandleParticipantJoined(ctx context.Context, in ParticipantInput) error
	HandleParticipantLeft(ctx context.Context, in ParticipantInput) error
}

type attendanceService struct {
	status   StatusService
	resolver Resolver
	events   redisRepo.AttendanceRepository
	reports  pgRepo.ReportRepository
	prod     producer.Producer
	clock    Clock
	l        logger.Logger
}

func NewAttendanceService(
	status StatusService,
	resolver Resolver,
	events redisRepo.AttendanceRepository,
	reports pgRepo.ReportRepository,
	prod producer.Producer,
	clock Clock,
	l logger.Logger,
) AttendanceService {
	return &attendanceService{
		status:   status,
		resolver: resolver,
		events:   events,
		reports:  reports,
		prod:     prod,
		clock:    clock,
		l:        l,
	}
}

func (s *attendanceService) Join(ctx context.Context, in SessionInput) (*JoinOutput, error) {
	st, err := s.status.GetStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	if !st.Decision.CanJoin {
		return &JoinOutput{Status: st}, ErrJoinNotAllowed
	}

	out := &JoinOutput{Status: st}
	if st.Role.IsTeacher() && st.Session.Status != models.SessionStatusOngoing {
		started, err := s.status.Start(ctx, in)
		switch {
		case err == nil:
			out.Status = started
			out.Started = started.Session.Status == models.SessionStatusOngoing
		case errors.Is(err, ErrTransitionNotAllowed):
			// absent or already moved by someone else; joining is still fine
			s.l.Debugf(ctx, "service.attendance.Join: start skipped: %v", err)
		default:
			return nil, err
		}
	}

	ev, created, err := s.events.Join(ctx, redisRepo.JoinInput{
		Ref:      st.Session.Ref(),
		UserID:   in.Caller.UserID,
		JoinedAt: s.clock.Now(),
		Source:   models.AttendanceSourceAPI,
	})
	if err != nil {
		s.l.Errorf(ctx, "service.attendance.Join: %v", err)
		return nil, err
	}
	out.Event = ev
	out.Created = created

	if created {
		s.publish(ctx, kafka.TopicAttendanceJoined, st.Session, st.Role.Role, ev)
	}

	return out, nil
}

func (s *attendanceService) Leave(ctx context.Context, in SessionInput) (*LeaveOutput, error) {
	if in.Caller.UserID == "" {
		return nil, ErrInvalidUser
	}

	res, err := s.resolver.Resolve(ctx, in.SessionID, in.Kind, in.Caller.UserID)
	if err != nil {
		return nil, err
	}

	ev, err := s.events.Leave(ctx, res.Session.Ref(), in.Caller.UserID, s.clock.Now())
	if err != nil {
		if errors.Is(err, redisRepo.ErrNoOpenEvent) {
			return nil, ErrNotInMeeting
		}
		s.l.Errorf(ctx, "service.attendance.Leave: %v", err)
		return nil, err
	}

	s.publish(ctx, kafka.TopicAttendanceLeft, res.Session, in.Caller.Role, ev)

	return &LeaveOutput{Event: ev}, nil
}

func (s *attendanceService) GetAttendance(ctx context.Context, in SessionInput) (*AttendanceOutput, error) {
	st, err := s.status.GetStatus(ctx, in)
	if err != nil {
		return nil, err
	}

	ref := st.Session.Ref()
	events, err := s.events.ListEvents(ctx, ref, in.Caller.UserID)
	if err != nil {
		s.l.Errorf(ctx, "service.attendance.GetAttendance: %v", err)
		return nil, err
	}

	var report *models.SessionReport
	if st.Session.Status == models.SessionStatusCompleted {
		report, err = s.reports.Get(ctx, ref, in.Caller.UserID)
		if err != nil && !errors.Is(err, pgRepo.ErrNotFound) {
			s.l.Errorf(ctx, "service.attendance.GetAttendance: %v", err)
			return nil, err
		}
	}

	return &AttendanceOutput{
		Status:  st,
		Summary: attendance.Compute(s.clock.Now(), st.Session, events, report, st.Config),
	}, nil
}

// HandleParticipantJoined records a join reported by the meeting provider.
// The provider has already admitted the participant, so the join window is
// not re-checked.
func (s *attendanceService) HandleParticipantJoined(ctx context.Context, in ParticipantInput) error {
	res, err := s.resolver.Resolve(ctx, in.SessionID, in.Kind, in.UserID)
	if err != nil {
		return err
	}

	at := in.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	ev, created, err := s.events.Join(ctx, redisRepo.JoinInput{
		Ref:      res.Session.Ref(),
		UserID:   in.UserID,
		JoinedAt: at,
		Source:   models.AttendanceSourceWebhook,
	})
	if err != nil {
		s.l.Errorf(ctx, "service.attendance.HandleParticipantJoined: %v", err)
		return err
	}

	if created {
		s.publish(ctx, kafka.TopicAttendanceJoined, res.Session, in.Role, ev)
	}
	return nil
}

func (s *attendanceService) HandleParticipantLeft(ctx context.Context, in ParticipantInput) error {
	res, err := s.resolver.Resolve(ctx, in.SessionID, in.Kind, in.UserID)
	if err != nil {
		return err
	}

	at := in.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	ev, err := s.events.Leave(ctx, res.Session.Ref(), in.UserID, at)
	if err != nil {
		if errors.Is(err, redisRepo.ErrNoOpenEvent) {
			// already closed through the API
			s.l.Debugf(ctx, "service.attendance.HandleParticipantLeft: no open event for %s user %s", res.Session.Ref(), in.UserID)
			return nil
		}
		s.l.Errorf(ctx, "service.attendance.HandleParticipantLeft: %v", err)
		return err
	}

	s.publish(ctx, kafka.TopicAttendanceLeft, res.Session, in.Role, ev)
	return nil
}

func (s *attendanceService) publish(ctx context.Context, topic string, sess *models.Session, role models.Role, ev *models.AttendanceEvent) {
	err := s.prod.PublishAttendance(ctx, topic, kafka.AttendanceEvent{
		EventID:         ev.ID,
		SessionID:       sess.ID,
		SessionType:     string(sess.Kind),
		UserID:          ev.UserID,
		Role:            string(role),
		JoinedAt:        ev.JoinedAt,
		LeftAt:          ev.LeftAt,
		DurationMinutes: ev.DurationMinutes,
		Source:          string(ev.Source),
	})
	if err != nil {
		s.l.Warnf(ctx, "service.attendance.publish: %s for %s: %v", topic, sess.Ref(), err)
	}
}
