package lifecycle

import "github.com/vogiaan1904/sessiongate/internal/models"

var transitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionStatusUnscheduled: {
		models.SessionStatusScheduled,
		models.SessionStatusCancelled,
	},
	models.SessionStatusScheduled: {
		models.SessionStatusReady,
		models.SessionStatusOngoing,
		models.SessionStatusCompleted,
		models.SessionStatusCancelled,
	},
	models.SessionStatusReady: {
		models.SessionStatusOngoing,
		models.SessionStatusCompleted,
		models.SessionStatusCancelled,
		models.SessionStatusAbsent,
	},
	models.SessionStatusOngoing: {
		models.SessionStatusCompleted,
		models.SessionStatusAbsent,
	},
	models.SessionStatusAbsent: {
		models.SessionStatusOngoing,
		models.SessionStatusCompleted,
	},
}

func CanTransition(from, to models.SessionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
