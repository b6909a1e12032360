package kafka

import "time"

// Events published BY sessiongate

type SessionStatusEvent struct {
	SessionID       string     `json:"session_id"`
	SessionType     string     `json:"session_type"`
	AcademyID       string     `json:"academy_id"`
	FromStatus      string     `json:"from_status"`
	ToStatus        string     `json:"to_status"`
	MeetingRoomName string     `json:"meeting_room_name,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	ActorUserID     string     `json:"actor_user_id,omitempty"`
	Reason          string     `json:"reason"` // auto, teacher_action
	Timestamp       time.Time  `json:"timestamp"`
}

type AttendanceEvent struct {
	EventID         string     `json:"event_id"`
	SessionID       string     `json:"session_id"`
	SessionType     string     `json:"session_type"`
	UserID          string     `json:"user_id"`
	Role            string     `json:"role"`
	JoinedAt        time.Time  `json:"joined_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Source          string     `json:"source"`
	Timestamp       time.Time  `json:"timestamp"`
}

// Events consumed BY sessiongate (from the meeting provider webhook bridge)

type ParticipantEvent struct {
	SessionID   string    `json:"session_id"`
	SessionType string    `json:"session_type"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	RoomName    string    `json:"room_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}
