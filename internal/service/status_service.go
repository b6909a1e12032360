package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/meeting"
	"github.com/vogiaan1904/sessiongate/internal/models"
	repo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

const (
	reasonAuto          = "auto"
	reasonTeacherAction = "teacher_action"

	maxAdvanceAttempts = 3
)

var statusTopics = map[models.SessionStatus]string{
	models.SessionStatusReady:     kafka.TopicSessionReady,
	models.SessionStatusOngoing:   kafka.TopicSessionStarted,
	models.SessionStatusCompleted: kafka.TopicSessionCompleted,
	models.SessionStatusCancelled: kafka.TopicSessionCancelled,
}

type StatusService interface {
	// GetStatus resolves the session, applies any due time-driven
	// transitions and returns the join decision for the caller.
	GetStatus(ctx context.Context, in SessionInput) (*StatusOutput, error)
	// Start moves a ready session to ongoing. Teacher only.
	Start(ctx context.Context, in SessionInput) (*StatusOutput, error)
	Complete(ctx context.Context, in SessionInput) (*StatusOutput, error)
	Cancel(ctx context.Context, in SessionInput) (*StatusOutput, error)
}

type statusService struct {
	resolver Resolver
	repo     repo.SessionRepository
	meeting  meeting.Client
	prod     producer.Producer
	clock    Clock
	policy   lifecycle.OngoingPolicy
	l        logger.Logger

	sf singleflight.Group
}

func NewStatusService(
	resolver Resolver,
	repo repo.SessionRepository,
	meeting meeting.Client,
	prod producer.Producer,
	clock Clock,
	policy lifecycle.OngoingPolicy,
	l logger.Logger,
) StatusService {
	return &statusService{
		resolver: resolver,
		repo:     repo,
		meeting:  meeting,
		prod:     prod,
		clock:    clock,
		policy:   policy,
		l:        l,
	}
}

func (s *statusService) GetStatus(ctx context.Context, in SessionInput) (*StatusOutput, error) {
	if in.Caller.UserID == "" {
		return nil, ErrInvalidUser
	}

	res, err := s.resolver.Resolve(ctx, in.SessionID, in.Kind, in.Caller.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess, err := s.advance(ctx, res, now)
	if err != nil {
		return nil, err
	}

	return s.decide(now, sess, res.Config, in.Caller), nil
}

func (s *statusService) Start(ctx context.Context, in SessionInput) (*StatusOutput, error) {
	out, err := s.GetStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	if !out.Role.IsTeacher() {
		return nil, ErrNotSessionTeacher
	}
	if out.Session.Status == models.SessionStatusOngoing {
		return out, nil
	}
	if !out.Decision.CanJoin {
		return nil, ErrJoinNotAllowed
	}

	now := s.clock.Now()
	return s.teacherTransition(ctx, out, models.SessionStatusOngoing, now, in.Caller)
}

func (s *statusService) Complete(ctx context.Context, in SessionInput) (*StatusOutput, error) {
	out, err := s.GetStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	if !out.Role.IsTeacher() {
		return nil, ErrNotSessionTeacher
	}

	return s.teacherTransition(ctx, out, models.SessionStatusCompleted, s.clock.Now(), in.Caller)
}

func (s *statusService) Cancel(ctx context.Context, in SessionInput) (*StatusOutput, error) {
	out, err := s.GetStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	if !out.Role.IsTeacher() {
		return nil, ErrNotSessionTeacher
	}

	return s.teacherTransition(ctx, out, models.SessionStatusCancelled, s.clock.Now(), in.Caller)
}

func (s *statusService) teacherTransition(ctx context.Context, out *StatusOutput, to models.SessionStatus, now time.Time, caller Caller) (*StatusOutput, error) {
	cur := out.Session
	if !lifecycle.CanTransition(cur.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, cur.Status, to)
	}

	next := cur.Clone()
	next.Status = to
	ch := repo.StatusChange{Ref: cur.Ref(), From: cur.Status, To: to}

	switch to {
	case models.SessionStatusOngoing:
		next.StartedAt = &now
		ch.StartedAt = &now
	case models.SessionStatusCompleted:
		dur := actualMinutes(cur, now, out.Config)
		next.EndedAt = &now
		next.ActualDurationMinutes = &dur
		ch.EndedAt = &now
		ch.ActualDurationMinutes = &dur
	}

	won, err := s.repo.CompareAndSetStatus(ctx, ch)
	if err != nil {
		s.l.Errorf(ctx, "service.status.teacherTransition: %v", err)
		return nil, err
	}
	if !won {
		// someone changed the status since we read it
		return nil, fmt.Errorf("%w: status changed concurrently", ErrTransitionNotAllowed)
	}

	s.l.Infof(ctx, "service.status.teacherTransition: %s %s -> %s by %s", cur.Ref(), cur.Status, to, caller.UserID)

	teardown := (to == models.SessionStatusCompleted || to == models.SessionStatusCancelled) && next.HasMeetingRoom()
	s.afterTransition(ctx, next, cur.Status, []models.SessionStatus{to}, teardown, reasonTeacherAction, caller.UserID)

	return s.decide(now, next, out.Config, caller), nil
}

// advance persists any due lazy transitions. Concurrent callers for the
// same session share one attempt; across processes the status CAS decides
// a single winner, and only the winner runs side effects. The shared attempt
// outlives the first caller's cancellation.
func (s *statusService) advance(ctx context.Context, res *Resolved, now time.Time) (*models.Session, error) {
	if !lifecycle.Advance(res.Session, now, res.Config).Changed() {
		return res.Session, nil
	}

	key := res.Session.Ref().String()
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.persistAdvance(context.WithoutCancel(ctx), res.Session, now, res.Config)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Session).Clone(), nil
}

func (s *statusService) persistAdvance(ctx context.Context, sess *models.Session, now time.Time, cfg models.SessionConfiguration) (*models.Session, error) {
	cur := sess
	for attempt := 0; attempt < maxAdvanceAttempts; attempt++ {
		adv := lifecycle.Advance(cur, now, cfg)
		if !adv.Changed() {
			return cur, nil
		}

		next := adv.Session
		won, err := s.repo.CompareAndSetStatus(ctx, repo.StatusChange{
			Ref:                   next.Ref(),
			From:                  adv.From,
			To:                    next.Status,
			EndedAt:               next.EndedAt,
			ActualDurationMinutes: next.ActualDurationMinutes,
		})
		if err != nil {
			s.l.Errorf(ctx, "service.status.persistAdvance: %v", err)
			return nil, err
		}

		if won {
			s.l.Infof(ctx, "service.status.persistAdvance: %s %s -> %s", next.Ref(), adv.From, next.Status)
			s.afterTransition(ctx, next, adv.From, adv.Path, adv.TeardownRequested, reasonAuto, "")
			return next, nil
		}

		// lost the race; continue from whatever the winner stored
		cur, err = s.repo.Get(ctx, sess.Ref())
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrSessionNotFound
			}
			s.l.Errorf(ctx, "service.status.persistAdvance: %v", err)
			return nil, err
		}
	}

	return cur, nil
}

// afterTransition runs the winner-only side effects. Failures are logged
// and never undo the transition.
func (s *statusService) afterTransition(ctx context.Context, sess *models.Session, from models.SessionStatus, path []models.SessionStatus, teardown bool, reason, actor string) {
	if teardown {
		if err := s.meeting.CloseRoom(ctx, sess.MeetingRoomName); err != nil {
			s.l.Warnf(ctx, "service.status.afterTransition: close room %s for %s: %v", sess.MeetingRoomName, sess.Ref(), err)
		}
	}

	prev := from
	for _, st := range path {
		topic, ok := statusTopics[st]
		if !ok {
			prev = st
			continue
		}
		ev := kafka.SessionStatusEvent{
			SessionID:       sess.ID,
			SessionType:     string(sess.Kind),
			AcademyID:       sess.AcademyID,
			FromStatus:      string(prev),
			ToStatus:        string(st),
			MeetingRoomName: sess.MeetingRoomName,
			ScheduledAt:     sess.ScheduledAt,
			StartedAt:       sess.StartedAt,
			EndedAt:         sess.EndedAt,
			ActorUserID:     actor,
			Reason:          reason,
		}
		if err := s.prod.PublishSessionStatus(ctx, topic, ev); err != nil {
			s.l.Warnf(ctx, "service.status.afterTransition: publish %s for %s: %v", topic, sess.Ref(), err)
		}
		prev = st
	}
}

func (s *statusService) decide(now time.Time, sess *models.Session, cfg models.SessionConfiguration, caller Caller) *StatusOutput {
	rc := lifecycle.ClassifyRole(sess, caller.UserID, caller.Role)
	return &StatusOutput{
		Session:  sess,
		Config:   cfg,
		Role:     rc,
		Decision: lifecycle.Evaluate(now, sess, rc, cfg, s.policy),
	}
}

// actualMinutes measures a manually completed session from its start, or
// from the schedule when it was never started.
func actualMinutes(s *models.Session, now time.Time, cfg models.SessionConfiguration) int {
	from := s.StartedAt
	if from == nil {
		from = s.ScheduledAt
	}
	if from == nil || !now.After(*from) {
		return 0
	}

	mins := int(now.Sub(*from) / time.Minute)
	if limit := cfg.EffectiveDuration(s) + cfg.EndingBufferMinutes; mins > limit {
		mins = limit
	}
	return mins
}
