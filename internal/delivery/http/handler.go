package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/delivery"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/internal/service"
	pkgErrors "github.com/vogiaan1904/sessiongate/pkg/errors"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
	"github.com/vogiaan1904/sessiongate/pkg/response"
	"github.com/vogiaan1904/sessiongate/pkg/util"
)

type HTTPHandler struct {
	statusSvc     service.StatusService
	attendanceSvc service.AttendanceService
	logger        logger.Logger
	validator     *validator.Validate
}

func NewHTTPHandler(statusSvc service.StatusService, attendanceSvc service.AttendanceService, logger logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		statusSvc:     statusSvc,
		attendanceSvc: attendanceSvc,
		logger:        logger,
		validator:     validator.New(),
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "sessiongate",
		Time:    util.TimeToISO8601Str(time.Now()),
	})
}

// GetStatus returns the join button state for the caller.
func (h *HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	in, ok := h.sessionInput(w, r)
	if !ok {
		return
	}

	out, err := h.statusSvc.GetStatus(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, delivery.NewStatusResponse(out))
}

// Join records the caller entering the meeting. A teacher joining a ready
// session starts it.
func (h *HTTPHandler) Join(w http.ResponseWriter, r *http.Request) {
	in, ok := h.sessionInput(w, r)
	if !ok {
		return
	}

	out, err := h.attendanceSvc.Join(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrJoinNotAllowed) && out != nil && out.Status != nil {
			// the button state tells the client why
			h.respondJSON(w, r, http.StatusForbidden, response.Resp{
				ErrorCode: delivery.ErrJoinNotAllowed.Code,
				Message:   out.Status.Decision.Message,
				Data:      delivery.NewStatusResponse(out.Status),
			})
			return
		}
		h.respondError(w, r, err)
		return
	}

	code := http.StatusOK
	if out.Created {
		code = http.StatusCreated
	}

	h.respondJSON(w, r, code, JoinResponse{
		StatusResponse: delivery.NewStatusResponse(out.Status),
		Event:          delivery.NewEventResponse(out.Event),
		Created:        out.Created,
		Started:        out.Started,
	})
}

func (h *HTTPHandler) Leave(w http.ResponseWriter, r *http.Request) {
	in, ok := h.sessionInput(w, r)
	if !ok {
		return
	}

	out, err := h.attendanceSvc.Leave(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, LeaveResponse{Event: delivery.NewEventResponse(out.Event)})
}

func (h *HTTPHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	in, ok := h.sessionInput(w, r)
	if !ok {
		return
	}

	out, err := h.attendanceSvc.GetAttendance(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, delivery.NewAttendanceResponse(out))
}

func (h *HTTPHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.teacherAction(w, r, h.statusSvc.Start)
}

func (h *HTTPHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.teacherAction(w, r, h.statusSvc.Complete)
}

func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.teacherAction(w, r, h.statusSvc.Cancel)
}

type statusAction func(ctx context.Context, in service.SessionInput) (*service.StatusOutput, error)

func (h *HTTPHandler) teacherAction(w http.ResponseWriter, r *http.Request, action statusAction) {
	in, ok := h.sessionInput(w, r)
	if !ok {
		return
	}

	out, err := action(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, delivery.NewStatusResponse(out))
}

// sessionInput reads and validates the session reference and the caller.
// It writes the error response itself and returns false on failure.
func (h *HTTPHandler) sessionInput(w http.ResponseWriter, r *http.Request) (service.SessionInput, bool) {
	q := sessionQuery{
		ID:   chi.URLParam(r, "id"),
		Type: r.URL.Query().Get("type"),
	}
	if err := h.validator.Struct(q); err != nil {
		h.logger.Debugf(r.Context(), "delivery.http.sessionInput: %v", err)
		h.respondError(w, r, pkgErrors.NewHTTPError(http.StatusBadRequest, delivery.ErrInvalidRequest))
		return service.SessionInput{}, false
	}

	p, err := auth.FromContext(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return service.SessionInput{}, false
	}

	return service.SessionInput{
		SessionID: q.ID,
		Kind:      models.SessionKind(q.Type),
		Caller:    service.Caller{UserID: p.UserID, Role: p.Role},
	}, true
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(r.Context(), "delivery.http.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := delivery.MapHTTPError(err)
	code, body := response.ParseHTTPError(mapped)
	if code >= http.StatusInternalServerError {
		h.logger.Errorf(r.Context(), "delivery.http.respondError: %v", err)
	} else {
		h.logger.Debugf(r.Context(), "delivery.http.respondError: %v", err)
	}

	h.respondJSON(w, r, code, body)
}
