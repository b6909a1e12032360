package service

import (
	"time"

	"github.com/vogiaan1904/sessiongate/internal/attendance"
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/models"
)

// Caller identifies who is asking. Role is the token claim, not the
// effective role.
type Caller struct {
	UserID string
	Role   models.Role
}

type SessionInput struct {
	SessionID string
	// Kind is optional; when empty the id is probed across all kinds.
	Kind   models.SessionKind
	Caller Caller
}

type StatusOutput struct {
	Session  *models.Session
	Config   models.SessionConfiguration
	Role     models.RoleContext
	Decision lifecycle.Decision
}

type JoinOutput struct {
	Status  *StatusOutput
	Event   *models.AttendanceEvent
	Created bool
	// Started is true when this join moved the session to ongoing.
	Started bool
}

type LeaveOutput struct {
	Event *models.AttendanceEvent
}

type AttendanceOutput struct {
	Status  *StatusOutput
	Summary attendance.Summary
}

// ParticipantInput carries a meeting provider participant event.
type ParticipantInput struct {
	SessionID string
	Kind      models.SessionKind
	UserID    string
	Role      models.Role
	At        time.Time
}
