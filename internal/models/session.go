package models

import (
	"fmt"
	"time"
)

type SessionKind string

const (
	SessionKindAcademic    SessionKind = "academic"
	SessionKindQuran       SessionKind = "quran"
	SessionKindInteractive SessionKind = "interactive"
)

// SessionKinds lists every kind in resolution precedence order.
var SessionKinds = []SessionKind{SessionKindInteractive, SessionKindAcademic, SessionKindQuran}

func (k SessionKind) IsValid() bool {
	switch k {
	case SessionKindAcademic, SessionKindQuran, SessionKindInteractive:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionStatusUnscheduled SessionStatus = "unscheduled"
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusReady       SessionStatus = "ready"
	SessionStatusOngoing     SessionStatus = "ongoing"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusAbsent      SessionStatus = "absent"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

func (s SessionStatus) IsKnown() bool {
	switch s {
	case SessionStatusUnscheduled, SessionStatusScheduled, SessionStatusReady,
		SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled, SessionStatusAbsent:
		return true
	}
	return false
}

// SessionRef is the type-qualified identity of a session. Bare ids are not
// unique across kinds.
type SessionRef struct {
	Kind SessionKind `json:"kind"`
	ID   string      `json:"id"`
}

func (r SessionRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

type Session struct {
	ID                    string        `json:"id"`
	Kind                  SessionKind   `json:"kind"`
	AcademyID             string        `json:"academy_id"`
	Status                SessionStatus `json:"status"`
	ScheduledAt           *time.Time    `json:"scheduled_at,omitempty"`
	DurationMinutes       int           `json:"duration_minutes"`
	MeetingRoomName       string        `json:"meeting_room_name,omitempty"`
	StartedAt             *time.Time    `json:"started_at,omitempty"`
	EndedAt               *time.Time    `json:"ended_at,omitempty"`
	ActualDurationMinutes *int          `json:"actual_duration_minutes,omitempty"`
	TeacherUserID         string        `json:"teacher_user_id,omitempty"`
	StudentUserID         string        `json:"student_user_id,omitempty"`
	CircleID              string        `json:"circle_id,omitempty"`
	CourseID              string        `json:"course_id,omitempty"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func (s *Session) Ref() SessionRef {
	return SessionRef{Kind: s.Kind, ID: s.ID}
}

func (s *Session) IsTerminal() bool {
	return s.Status.IsTerminal()
}

func (s *Session) HasMeetingRoom() bool {
	return s.MeetingRoomName != ""
}

// IsTeacher reports whether userID is the teacher linked to the session.
func (s *Session) IsTeacher(userID string) bool {
	return userID != "" && s.TeacherUserID == userID
}

// IsParticipant reports whether userID is linked to the session in any role.
// Group sessions (circles, courses) have no single student link, so only the
// teacher and the individual student are recognised here.
func (s *Session) IsParticipant(userID string) bool {
	return s.IsTeacher(userID) || (userID != "" && s.StudentUserID == userID)
}

// Clone returns a copy that does not share pointer fields with s.
func (s *Session) Clone() *Session {
	c := *s
	c.ScheduledAt = cloneTime(s.ScheduledAt)
	c.StartedAt = cloneTime(s.StartedAt)
	c.EndedAt = cloneTime(s.EndedAt)
	if s.ActualDurationMinutes != nil {
		v := *s.ActualDurationMinutes
		c.ActualDurationMinutes = &v
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
