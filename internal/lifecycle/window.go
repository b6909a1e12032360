// Package lifecycle holds the pure session lifecycle rules: join windows,
// the display decision table, allowed transitions and the lazy status
// advancement applied on every status read. Nothing here reads the clock.
package lifecycle

import (
	"time"

	"github.com/vogiaan1904/sessiongate/internal/models"
)

// Window is the half-open interval [Start, End) during which a participant
// may enter the meeting.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Open(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

// Until returns how long until the window opens, or 0 once it has.
func (w Window) Until(now time.Time) time.Duration {
	if !now.Before(w.Start) {
		return 0
	}
	return w.Start.Sub(now)
}

func (w Window) Closed(now time.Time) bool {
	return !now.Before(w.End)
}

// SessionEnd is scheduled_at + duration + ending buffer.
func SessionEnd(scheduledAt time.Time, durationMinutes, bufferMinutes int) time.Time {
	return scheduledAt.Add(time.Duration(durationMinutes+bufferMinutes) * time.Minute)
}

// JoinWindow computes the window for one role. Teachers may enter
// prepMinutes early; students only from scheduledAt.
func JoinWindow(scheduledAt time.Time, durationMinutes, prepMinutes, bufferMinutes int, isTeacher bool) Window {
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultSessionDurationMinutes
	}

	start := scheduledAt
	if isTeacher {
		start = scheduledAt.Add(-time.Duration(prepMinutes) * time.Minute)
	}

	return Window{
		Start: start,
		End:   SessionEnd(scheduledAt, durationMinutes, bufferMinutes),
	}
}

func IsJoinable(now time.Time, scheduledAt *time.Time, durationMinutes, prepMinutes, bufferMinutes int, isTeacher bool) bool {
	if scheduledAt == nil {
		return false
	}
	return JoinWindow(*scheduledAt, durationMinutes, prepMinutes, bufferMinutes, isTeacher).Open(now)
}

// SessionWindow is JoinWindow for a stored session under cfg. ok is false
// when the session has no schedule.
func SessionWindow(s *models.Session, cfg models.SessionConfiguration, isTeacher bool) (w Window, ok bool) {
	if s == nil || s.ScheduledAt == nil {
		return Window{}, false
	}
	return JoinWindow(*s.ScheduledAt, cfg.EffectiveDuration(s), cfg.PreparationMinutes, cfg.EndingBufferMinutes, isTeacher), true
}
