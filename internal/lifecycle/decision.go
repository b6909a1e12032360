package lifecycle

import (
	"fmt"
	"time"

	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/util"
)

type Hint string

const (
	HintIdle     Hint = "idle"
	HintJoinable Hint = "joinable"
	HintDisabled Hint = "disabled"
	HintError    Hint = "error"
)

var buttonClasses = map[Hint]string{
	HintIdle:     "bg-blue-500 cursor-not-allowed",
	HintJoinable: "bg-green-600 hover:bg-green-700",
	HintDisabled: "bg-gray-400 cursor-not-allowed",
	HintError:    "bg-red-400 cursor-not-allowed",
}

func (h Hint) ButtonClass() string {
	if c, ok := buttonClasses[h]; ok {
		return c
	}
	return buttonClasses[HintError]
}

// OngoingPolicy selects how the ongoing row treats a closed window.
type OngoingPolicy string

const (
	// OngoingUnconditional lets anyone join an ongoing session.
	OngoingUnconditional OngoingPolicy = "unconditional"
	// OngoingWindowed gates ongoing sessions through the role's window.
	OngoingWindowed OngoingPolicy = "windowed"
)

type Decision struct {
	Message    string
	ButtonText string
	CanJoin    bool
	Hint       Hint
	// Rejoin is set for students re-entering after being marked absent.
	Rejoin bool
}

func (d Decision) ButtonClass() string {
	return d.Hint.ButtonClass()
}

type DecisionInput struct {
	Status     models.SessionStatus
	Role       models.Role
	WindowOpen bool
	// Scheduled is false when the session has no scheduled_at.
	Scheduled bool
	// UntilOpen is the time left before the window opens, 0 once open or past.
	UntilOpen time.Duration
	// WindowClosed is true once the window end has passed.
	WindowClosed bool
}

const (
	msgEnded         = "Session ended"
	msgCancelled     = "Session cancelled"
	msgAwaiting      = "Awaiting scheduling"
	msgNoSchedule    = "Session has not been scheduled yet"
	msgUnknown       = "Unknown session state, joining is unavailable"
	msgWindowPassed  = "Session time has ended"
	msgOngoing       = "Session in progress"
	msgOngoingClosed = "Session in progress, joining is closed"
	msgReadyTeacher  = "Session is ready, you can start it now"
	msgReadyStudent  = "Session is ready, you can join now"
	msgStartingSoon  = "Session is about to start"
	msgAbsentTeacher = "Session still active"
	msgAbsentStudent = "You were marked absent, you can still rejoin"
	msgAbsentClosed  = "Marked absent"

	btnUnavailable   = "Unavailable"
	btnNotScheduled  = "Not scheduled"
	btnJoin          = "Join session"
	btnStart         = "Start session"
	btnEnter         = "Enter session"
	btnRejoin        = "Rejoin session"
	btnWaiting       = "Waiting to start"
	btnEnded         = "Session ended"
	btnCancelled     = "Session cancelled"
	btnJoiningClosed = "Joining closed"
)

// Decide maps (status, role, window) to the join button state. Unknown
// statuses come back as a non-joinable error hint.
func Decide(in DecisionInput, policy OngoingPolicy) Decision {
	switch in.Status {
	case models.SessionStatusCompleted:
		return Decision{Message: msgEnded, ButtonText: btnEnded, Hint: HintDisabled}
	case models.SessionStatusCancelled:
		return Decision{Message: msgCancelled, ButtonText: btnCancelled, Hint: HintDisabled}
	case models.SessionStatusUnscheduled:
		return Decision{Message: msgAwaiting, ButtonText: btnNotScheduled, Hint: HintIdle}
	}

	if !in.Status.IsKnown() {
		return Decision{Message: msgUnknown, ButtonText: btnUnavailable, Hint: HintError}
	}

	if !in.Scheduled {
		return Decision{Message: msgNoSchedule, ButtonText: btnNotScheduled, Hint: HintIdle}
	}

	teacher := in.Role == models.RoleTeacher

	switch in.Status {
	case models.SessionStatusOngoing:
		if in.WindowOpen || policy != OngoingWindowed {
			return joinable(msgOngoing, pick(teacher, btnEnter, btnJoin))
		}
		return Decision{Message: msgOngoingClosed, ButtonText: btnJoiningClosed, Hint: HintDisabled}

	case models.SessionStatusReady:
		if in.WindowOpen {
			return joinable(pick(teacher, msgReadyTeacher, msgReadyStudent), pick(teacher, btnStart, btnJoin))
		}
		return waiting(in)

	case models.SessionStatusScheduled:
		if in.WindowOpen {
			return joinable(msgStartingSoon, pick(teacher, btnStart, btnJoin))
		}
		return waiting(in)

	case models.SessionStatusAbsent:
		if !in.WindowOpen {
			return Decision{Message: msgAbsentClosed, ButtonText: btnJoiningClosed, Hint: HintDisabled}
		}
		if teacher {
			return joinable(msgAbsentTeacher, btnEnter)
		}
		d := joinable(msgAbsentStudent, btnRejoin)
		d.Rejoin = true
		return d
	}

	return Decision{Message: msgUnknown, ButtonText: btnUnavailable, Hint: HintError}
}

// Evaluate computes the window for rc and applies Decide.
func Evaluate(now time.Time, s *models.Session, rc models.RoleContext, cfg models.SessionConfiguration, policy OngoingPolicy) Decision {
	w, ok := SessionWindow(s, cfg, rc.IsTeacher())
	in := DecisionInput{
		Status:    s.Status,
		Role:      rc.Role,
		Scheduled: ok,
	}
	if ok {
		in.WindowOpen = w.Open(now)
		in.UntilOpen = w.Until(now)
		in.WindowClosed = w.Closed(now)
	}
	return Decide(in, policy)
}

func waiting(in DecisionInput) Decision {
	if in.WindowClosed {
		return Decision{Message: msgWindowPassed, ButtonText: btnJoiningClosed, Hint: HintDisabled}
	}
	return Decision{
		Message:    fmt.Sprintf("Joining opens in %s", util.FormatCountdown(in.UntilOpen)),
		ButtonText: btnWaiting,
		Hint:       HintIdle,
	}
}

func joinable(msg, btn string) Decision {
	return Decision{Message: msg, ButtonText: btn, CanJoin: true, Hint: HintJoinable}
}

func pick(teacher bool, forTeacher, forStudent string) string {
	if teacher {
		return forTeacher
	}
	return forStudent
}
