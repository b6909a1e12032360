package lifecycle

import (
	"time"

	"github.com/vogiaan1904/sessiongate/internal/models"
)

var base = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func testConfig() models.SessionConfiguration {
	return models.SessionConfiguration{
		PreparationMinutes:     15,
		EndingBufferMinutes:    5,
		DefaultDurationMinutes: 60,
	}
}

func testSession(status models.SessionStatus) *models.Session {
	sched := base
	return &models.Session{
		ID:              "42",
		Kind:            models.SessionKindQuran,
		Status:          status,
		ScheduledAt:     &sched,
		DurationMinutes: 60,
		MeetingRoomName: "room-42",
		TeacherUserID:   "teacher-1",
		StudentUserID:   "student-1",
	}
}

var (
	teacherCtx = models.RoleContext{UserID: "teacher-1", Role: models.RoleTeacher, OwnsSession: true}
	studentCtx = models.RoleContext{UserID: "student-1", Role: models.RoleStudent, OwnsSession: true}
)
