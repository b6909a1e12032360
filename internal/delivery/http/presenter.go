package http

import (
	"github.com/vogiaan1904/sessiongate/internal/delivery"
)

type sessionQuery struct {
	ID   string `validate:"required,max=64"`
	Type string `validate:"omitempty,oneof=academic quran interactive"`
}

type JoinResponse struct {
	delivery.StatusResponse
	Event   delivery.AttendanceEventResponse `json:"attendance_event"`
	Created bool                             `json:"created"`
	Started bool                             `json:"started"`
}

type LeaveResponse struct {
	Event delivery.AttendanceEventResponse `json:"attendance_event"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    string `json:"time"`
}
