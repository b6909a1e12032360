package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

func TestGetStatus_TeacherTimeline(t *testing.T) {
	s := scheduledSession(models.SessionKindQuran, "42", models.SessionStatusScheduled)
	f := newFixture(t, s)
	ctx := context.Background()
	in := SessionInput{SessionID: "42", Kind: models.SessionKindQuran, Caller: teacher}

	f.clock.Set(at(9, 44))
	out, err := f.status.GetStatus(ctx, in)
	require.NoError(t, err)
	assert.False(t, out.Decision.CanJoin)
	assert.Equal(t, models.SessionStatusScheduled, out.Session.Status)
	assert.Equal(t, lifecycle.HintIdle, out.Decision.Hint)

	f.clock.Set(at(9, 46))
	out, err = f.status.GetStatus(ctx, in)
	require.NoError(t, err)
	assert.True(t, out.Decision.CanJoin)
	assert.Equal(t, models.SessionStatusReady, out.Session.Status)
	assert.Equal(t, models.SessionStatusReady, f.sessions.stored(s.Ref()).Status)

	f.clock.Set(at(11, 4))
	out, err = f.status.GetStatus(ctx, in)
	require.NoError(t, err)
	assert.True(t, out.Decision.CanJoin)

	f.clock.Set(at(11, 6))
	out, err = f.status.GetStatus(ctx, in)
	require.NoError(t, err)
	assert.False(t, out.Decision.CanJoin)
	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)

	stored := f.sessions.stored(s.Ref())
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	require.NotNil(t, stored.EndedAt)
	assert.Equal(t, at(11, 5), *stored.EndedAt)
	assert.Equal(t, 60, *stored.ActualDurationMinutes)

	assert.EqualValues(t, 1, f.meeting.closed.Load())
	assert.Equal(t, []string{kafka.TopicSessionReady, kafka.TopicSessionCompleted}, f.prod.statusTopics())
}

func TestGetStatus_StudentTimeline(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindAcademic, "7", models.SessionStatusScheduled))
	ctx := context.Background()
	in := SessionInput{SessionID: "7", Caller: student}

	for _, step := range []struct {
		now     time.Time
		canJoin bool
	}{
		{at(9, 50), false},
		{at(10, 5), true},
		{at(11, 6), false},
	} {
		f.clock.Set(step.now)
		out, err := f.status.GetStatus(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, step.canJoin, out.Decision.CanJoin, step.now.Format("15:04"))
		assert.Equal(t, models.RoleStudent, out.Role.Role)
	}
}

func TestGetStatus_ScheduledPastEndCompletesInOneRead(t *testing.T) {
	s := scheduledSession(models.SessionKindQuran, "42", models.SessionStatusScheduled)
	f := newFixture(t, s)
	f.clock.Set(at(11, 6))

	out, err := f.status.GetStatus(context.Background(), SessionInput{SessionID: "42", Caller: teacher})
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	assert.False(t, out.Decision.CanJoin)
	assert.EqualValues(t, 1, f.meeting.closed.Load())
	assert.Equal(t, []string{kafka.TopicSessionReady, kafka.TopicSessionCompleted}, f.prod.statusTopics())
}

func TestGetStatus_CancelledAnyTime(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusCancelled))

	for _, now := range []time.Time{at(8, 0), at(9, 50), at(10, 30), at(12, 0)} {
		f.clock.Set(now)
		out, err := f.status.GetStatus(context.Background(), SessionInput{SessionID: "42", Caller: teacher})
		require.NoError(t, err)
		assert.False(t, out.Decision.CanJoin)
		assert.Equal(t, "Session cancelled", out.Decision.Message)
		assert.Equal(t, lifecycle.HintDisabled, out.Decision.Hint)
	}
	assert.Zero(t, f.sessions.casCalls)
}

func TestGetStatus_AutoCompleteIdempotent(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusOngoing))
	f.clock.Set(at(11, 10))
	in := SessionInput{SessionID: "42", Caller: student}

	for i := 0; i < 2; i++ {
		out, err := f.status.GetStatus(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	}

	assert.EqualValues(t, 1, f.meeting.closed.Load())
	assert.Equal(t, 1, f.sessions.casCalls)
	assert.Equal(t, []string{kafka.TopicSessionCompleted}, f.prod.statusTopics())
}

func TestGetStatus_AutoCompleteSurvivesCallerCancel(t *testing.T) {
	s := scheduledSession(models.SessionKindQuran, "42", models.SessionStatusOngoing)
	f := newFixture(t, s)
	f.clock.Set(at(11, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.status.GetStatus(ctx, SessionInput{SessionID: "42", Kind: models.SessionKindQuran, Caller: student})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	assert.Equal(t, models.SessionStatusCompleted, f.sessions.stored(s.Ref()).Status)
}

func TestGetStatus_ConcurrentAutoCompleteTearsDownOnce(t *testing.T) {
	s := scheduledSession(models.SessionKindQuran, "42", models.SessionStatusOngoing)
	f := newFixture(t, s)
	f.clock.Set(at(11, 10))
	f.sessions.casDelay = 5 * time.Millisecond

	// a second instance sharing the store stands in for another process
	l := logger.InitializeTestZapLogger()
	other := NewStatusService(f.resolver, f.sessions, f.meeting, f.prod, f.clock, lifecycle.OngoingUnconditional, l)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		svc := f.status
		if i%2 == 1 {
			svc = other
		}
		wg.Go(func() {
			out, err := svc.GetStatus(context.Background(), SessionInput{SessionID: "42", Caller: student})
			assert.NoError(t, err)
			assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
		})
	}
	wg.Wait()

	assert.EqualValues(t, 1, f.meeting.closed.Load())
	assert.Equal(t, []string{kafka.TopicSessionCompleted}, f.prod.statusTopics())
}

func TestGetStatus_TeardownFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusReady))
	f.meeting.err = errBoom
	f.clock.Set(at(12, 0))

	out, err := f.status.GetStatus(context.Background(), SessionInput{SessionID: "42", Caller: teacher})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	assert.Equal(t, models.SessionStatusCompleted, f.sessions.stored(out.Session.Ref()).Status)
}

func TestGetStatus_Errors(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusReady))
	ctx := context.Background()

	_, err := f.status.GetStatus(ctx, SessionInput{SessionID: "404", Caller: teacher})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.status.GetStatus(ctx, SessionInput{SessionID: "42", Caller: Caller{}})
	assert.ErrorIs(t, err, ErrInvalidUser)

	f.sessions.getErr = errBoom
	_, err = f.status.GetStatus(ctx, SessionInput{SessionID: "42", Kind: models.SessionKindQuran, Caller: teacher})
	assert.ErrorIs(t, err, errBoom)
}

func TestGetStatus_NonTeacherClaimGetsStudentWindow(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusReady))
	f.clock.Set(at(9, 50))

	out, err := f.status.GetStatus(context.Background(), SessionInput{
		SessionID: "42",
		Caller:    Caller{UserID: "someone-else", Role: models.RoleTeacher},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, out.Role.Role)
	assert.False(t, out.Decision.CanJoin)
}

func TestComplete(t *testing.T) {
	s := scheduledSession(models.SessionKindAcademic, "7", models.SessionStatusOngoing)
	started := at(10, 2)
	s.StartedAt = &started
	f := newFixture(t, s)
	f.clock.Set(at(10, 50))
	ctx := context.Background()

	_, err := f.status.Complete(ctx, SessionInput{SessionID: "7", Caller: student})
	assert.ErrorIs(t, err, ErrNotSessionTeacher)

	out, err := f.status.Complete(ctx, SessionInput{SessionID: "7", Caller: teacher})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	assert.Equal(t, 48, *out.Session.ActualDurationMinutes)
	assert.Equal(t, at(10, 50), *f.sessions.stored(s.Ref()).EndedAt)
	assert.EqualValues(t, 1, f.meeting.closed.Load())
	assert.Equal(t, []string{kafka.TopicSessionCompleted}, f.prod.statusTopics())

	_, err = f.status.Complete(ctx, SessionInput{SessionID: "7", Caller: teacher})
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindAcademic, "7", models.SessionStatusScheduled))
	f.clock.Set(at(8, 0))
	ctx := context.Background()

	out, err := f.status.Cancel(ctx, SessionInput{SessionID: "7", Caller: teacher})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCancelled, out.Session.Status)
	assert.False(t, out.Decision.CanJoin)
	assert.Equal(t, []string{kafka.TopicSessionCancelled}, f.prod.statusTopics())

	_, err = f.status.Cancel(ctx, SessionInput{SessionID: "7", Caller: teacher})
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestStart(t *testing.T) {
	f := newFixture(t, scheduledSession(models.SessionKindQuran, "42", models.SessionStatusScheduled))
	ctx := context.Background()
	in := SessionInput{SessionID: "42", Caller: teacher}

	f.clock.Set(at(9, 30))
	_, err := f.status.Start(ctx, in)
	assert.ErrorIs(t, err, ErrJoinNotAllowed)

	f.clock.Set(at(9, 50))
	out, err := f.status.Start(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusOngoing, out.Session.Status)
	assert.Equal(t, at(9, 50), *out.Session.StartedAt)

	// starting again is a no-op
	out, err = f.status.Start(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusOngoing, out.Session.Status)

	_, err = f.status.Start(ctx, SessionInput{SessionID: "42", Caller: student})
	assert.ErrorIs(t, err, ErrNotSessionTeacher)

	assert.Equal(t, []string{kafka.TopicSessionReady, kafka.TopicSessionStarted}, f.prod.statusTopics())
}

func TestActualMinutes(t *testing.T) {
	cfg := models.DefaultSessionConfiguration()
	s := scheduledSession(models.SessionKindAcademic, "7", models.SessionStatusOngoing)

	assert.Equal(t, 30, actualMinutes(s, at(10, 30), cfg))
	assert.Equal(t, 65, actualMinutes(s, at(13, 0), cfg))
	assert.Equal(t, 0, actualMinutes(s, at(9, 0), cfg))

	s.ScheduledAt = nil
	assert.Equal(t, 0, actualMinutes(s, at(10, 30), cfg))
}
