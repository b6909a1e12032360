package delivery

import (
	"github.com/vogiaan1904/sessiongate/internal/attendance"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/internal/service"
	"github.com/vogiaan1904/sessiongate/pkg/util"
)

// StatusResponse is the join button contract consumed by the frontend.
type StatusResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ButtonText  string `json:"button_text"`
	ButtonClass string `json:"button_class"`
	CanJoin     bool   `json:"can_join"`
	SessionType string `json:"session_type"`
}

type AttendanceEventResponse struct {
	ID              string `json:"id"`
	JoinedAt        string `json:"joined_at"`
	LeftAt          string `json:"left_at,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Source          string `json:"source"`
}

type AttendanceResponse struct {
	attendance.Summary
	SessionStatus string `json:"session_status"`
	SessionType   string `json:"session_type"`
}

func NewStatusResponse(out *service.StatusOutput) StatusResponse {
	return StatusResponse{
		Status:      string(out.Session.Status),
		Message:     out.Decision.Message,
		ButtonText:  out.Decision.ButtonText,
		ButtonClass: out.Decision.ButtonClass(),
		CanJoin:     out.Decision.CanJoin,
		SessionType: string(out.Session.Kind),
	}
}

func NewEventResponse(ev *models.AttendanceEvent) AttendanceEventResponse {
	return AttendanceEventResponse{
		ID:              ev.ID,
		JoinedAt:        util.TimeToISO8601Str(ev.JoinedAt),
		LeftAt:          util.TimePtrToISO8601Str(ev.LeftAt),
		DurationMinutes: ev.DurationMinutes,
		Source:          string(ev.Source),
	}
}

func NewAttendanceResponse(out *service.AttendanceOutput) AttendanceResponse {
	return AttendanceResponse{
		Summary:       out.Summary,
		SessionStatus: string(out.Status.Session.Status),
		SessionType:   string(out.Status.Session.Kind),
	}
}
