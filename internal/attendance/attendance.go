// Package attendance folds raw join/leave events and the post-session report
// into the attendance summary shown to a participant.
package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/util"
)

type Summary struct {
	HasAttendance        bool                    `json:"has_attendance"`
	IsCurrentlyInMeeting bool                    `json:"is_currently_in_meeting"`
	Status               models.AttendanceStatus `json:"attendance_status"`
	DurationMinutes      int                     `json:"duration_minutes"`
	JoinCount            int                     `json:"join_count"`
	AttendancePercentage float64                 `json:"attendance_percentage"`
	MinutesUntilStart    *int                    `json:"minutes_until_start,omitempty"`
	FirstJoinedAt        *time.Time              `json:"first_joined_at,omitempty"`
	LastLeftAt           *time.Time              `json:"last_left_at,omitempty"`
	IsLate               bool                    `json:"is_late"`
	LateMinutes          int                     `json:"late_minutes"`
	FromReport           bool                    `json:"from_report"`
}

// Compute builds the summary for one user. events may contain duplicates and
// arrive in any order; report may be nil.
func Compute(now time.Time, s *models.Session, events []models.AttendanceEvent, report *models.SessionReport, cfg models.SessionConfiguration) Summary {
	events = Dedupe(events)

	if s.Status == models.SessionStatusCompleted {
		return completed(now, s, events, report, cfg)
	}

	if s.ScheduledAt == nil {
		return Summary{Status: models.AttendanceStatusNotStarted}
	}

	if now.Before(*s.ScheduledAt) {
		mins := util.CeilMinutes(s.ScheduledAt.Sub(now))
		// Joins during preparation are kept as history but do not count as presence.
		sum := aggregate(now, s, events, cfg)
		sum.Status = models.AttendanceStatusNotStarted
		sum.IsCurrentlyInMeeting = false
		sum.DurationMinutes = 0
		sum.AttendancePercentage = 0
		sum.MinutesUntilStart = &mins
		return sum
	}

	sum := aggregate(now, s, events, cfg)
	switch {
	case sum.IsCurrentlyInMeeting:
		sum.Status = models.AttendanceStatusInMeeting
	case sum.JoinCount > 0:
		sum.Status = models.AttendanceStatusLeftMeeting
	default:
		sum.Status = models.AttendanceStatusNotJoinedYet
	}
	return sum
}

func completed(now time.Time, s *models.Session, events []models.AttendanceEvent, report *models.SessionReport, cfg models.SessionConfiguration) Summary {
	if report != nil {
		sum := aggregate(now, s, events, cfg)
		sum.HasAttendance = true
		sum.IsCurrentlyInMeeting = false
		sum.FromReport = true
		sum.Status = report.AttendanceStatus
		sum.DurationMinutes = report.ActualAttendanceMinutes
		sum.AttendancePercentage = report.AttendancePercentage
		sum.IsLate = report.IsLate
		sum.LateMinutes = report.LateMinutes
		return sum
	}

	if len(events) > 0 {
		sum := aggregate(now, s, events, cfg)
		sum.Status = models.AttendanceStatusNotEnoughTime
		sum.IsCurrentlyInMeeting = false
		return sum
	}

	return Summary{Status: models.AttendanceStatusNotAttended}
}

func aggregate(now time.Time, s *models.Session, events []models.AttendanceEvent, cfg models.SessionConfiguration) Summary {
	sum := Summary{JoinCount: len(events), HasAttendance: len(events) > 0}

	for i := range events {
		e := &events[i]
		if sum.FirstJoinedAt == nil || e.JoinedAt.Before(*sum.FirstJoinedAt) {
			t := e.JoinedAt
			sum.FirstJoinedAt = &t
		}

		if e.IsOpen() {
			sum.IsCurrentlyInMeeting = true
			sum.DurationMinutes += elapsedMinutes(e.JoinedAt, now)
			continue
		}

		sum.DurationMinutes += closedMinutes(e)
		if sum.LastLeftAt == nil || e.LeftAt.After(*sum.LastLeftAt) {
			t := *e.LeftAt
			sum.LastLeftAt = &t
		}
	}

	if duration := cfg.EffectiveDuration(s); duration > 0 {
		pct := float64(sum.DurationMinutes) * 100 / float64(duration)
		sum.AttendancePercentage = math.Min(100, math.Round(pct*100)/100)
	}

	if s.ScheduledAt != nil && sum.FirstJoinedAt != nil && sum.FirstJoinedAt.After(*s.ScheduledAt) {
		late := int(sum.FirstJoinedAt.Sub(*s.ScheduledAt) / time.Minute)
		sum.IsLate = late > 0
		sum.LateMinutes = late
	}

	return sum
}

// Dedupe drops repeated event ids and any open event that starts while
// another open event is already running, since an open event satisfies
// every later join. The result is ordered by join time.
func Dedupe(events []models.AttendanceEvent) []models.AttendanceEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]models.AttendanceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	openSeen := false
	for _, e := range sorted {
		if e.ID != "" {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
		}
		if e.IsOpen() {
			if openSeen {
				continue
			}
			openSeen = true
		}
		out = append(out, e)
	}
	return out
}

func closedMinutes(e *models.AttendanceEvent) int {
	if e.DurationMinutes > 0 {
		return e.DurationMinutes
	}
	return elapsedMinutes(e.JoinedAt, *e.LeftAt)
}

func elapsedMinutes(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / time.Minute)
}
