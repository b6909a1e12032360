package lifecycle

import (
	"time"

	"github.com/vogiaan1904/sessiongate/internal/models"
)

// Advancement is the result of applying the time-driven transitions to a
// session snapshot.
type Advancement struct {
	Session *models.Session
	From    models.SessionStatus
	// Path lists every status entered, in order. Empty when nothing changed.
	Path              []models.SessionStatus
	TeardownRequested bool
}

func (a Advancement) Changed() bool {
	return len(a.Path) > 0
}

func (a Advancement) Entered(status models.SessionStatus) bool {
	for _, s := range a.Path {
		if s == status {
			return true
		}
	}
	return false
}

// MaybeAutoComplete completes a ready or ongoing session once now reaches
// scheduled_at + duration + buffer. The returned session is a copy; s is
// never mutated. teardown is true when the session has a meeting room.
func MaybeAutoComplete(s *models.Session, now time.Time, cfg models.SessionConfiguration) (*models.Session, bool) {
	if s == nil || s.ScheduledAt == nil {
		return s, false
	}
	if s.Status != models.SessionStatusReady && s.Status != models.SessionStatusOngoing {
		return s, false
	}

	duration := cfg.EffectiveDuration(s)
	end := SessionEnd(*s.ScheduledAt, duration, cfg.EndingBufferMinutes)
	if now.Before(end) {
		return s, false
	}

	out := s.Clone()
	out.Status = models.SessionStatusCompleted
	out.EndedAt = &end
	out.ActualDurationMinutes = &duration

	return out, out.HasMeetingRoom()
}

// Advance applies the lazy scheduled -> ready promotion once the teacher
// preparation window opens, then auto-completion. A scheduled session read
// after its end therefore passes through ready to completed.
func Advance(s *models.Session, now time.Time, cfg models.SessionConfiguration) Advancement {
	adv := Advancement{Session: s}
	if s == nil {
		return adv
	}
	adv.From = s.Status

	cur := s
	if cur.Status == models.SessionStatusScheduled && cur.ScheduledAt != nil {
		w, _ := SessionWindow(cur, cfg, true)
		if !now.Before(w.Start) {
			cur = cur.Clone()
			cur.Status = models.SessionStatusReady
			adv.Path = append(adv.Path, models.SessionStatusReady)
		}
	}

	completed, teardown := MaybeAutoComplete(cur, now, cfg)
	if completed.Status == models.SessionStatusCompleted && cur.Status != models.SessionStatusCompleted {
		adv.Path = append(adv.Path, models.SessionStatusCompleted)
		adv.TeardownRequested = teardown
		cur = completed
	}

	adv.Session = cur
	return adv
}
