package models

import "time"

type AttendanceStatus string

const (
	// Report statuses, written by grading collaborators.
	AttendanceStatusAttended AttendanceStatus = "attended"
	AttendanceStatusLate     AttendanceStatus = "late"
	AttendanceStatusLeft     AttendanceStatus = "leaved"
	AttendanceStatusAbsent   AttendanceStatus = "absent"

	// Derived statuses.
	AttendanceStatusNotStarted    AttendanceStatus = "not_started"
	AttendanceStatusNotJoinedYet  AttendanceStatus = "not_joined_yet"
	AttendanceStatusInMeeting     AttendanceStatus = "in_meeting"
	AttendanceStatusLeftMeeting   AttendanceStatus = "left"
	AttendanceStatusNotEnoughTime AttendanceStatus = "not_enough_time"
	AttendanceStatusNotAttended   AttendanceStatus = "not_attended"
)

type AttendanceSource string

const (
	AttendanceSourceAPI     AttendanceSource = "api"
	AttendanceSourceWebhook AttendanceSource = "webhook"
)

// AttendanceEvent is one join/leave interval for a (session, user) pair.
// LeftAt is nil while the user is still in the meeting.
type AttendanceEvent struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	Kind            SessionKind      `json:"kind"`
	UserID          string           `json:"user_id"`
	JoinedAt        time.Time        `json:"joined_at"`
	LeftAt          *time.Time       `json:"left_at,omitempty"`
	DurationMinutes int              `json:"duration_minutes"`
	Source          AttendanceSource `json:"source"`
}

func (e *AttendanceEvent) IsOpen() bool {
	return e.LeftAt == nil
}

type SessionReport struct {
	SessionID               string           `json:"session_id"`
	Kind                    SessionKind      `json:"kind"`
	StudentUserID           string           `json:"student_user_id"`
	AttendanceStatus        AttendanceStatus `json:"attendance_status"`
	ActualAttendanceMinutes int              `json:"actual_attendance_minutes"`
	AttendancePercentage    float64          `json:"attendance_percentage"`
	IsLate                  bool             `json:"is_late"`
	LateMinutes             int              `json:"late_minutes"`
}
