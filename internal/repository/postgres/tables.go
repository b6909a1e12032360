package postgres

import (
	"fmt"

	"github.com/vogiaan1904/sessiongate/internal/models"
)

type kindTable struct {
	table string
	// groupColumn links a session to the record carrying its overrides.
	groupColumn string
	groupTable  string
}

var kindTables = map[models.SessionKind]kindTable{
	models.SessionKindAcademic:    {table: "academic_sessions"},
	models.SessionKindQuran:       {table: "quran_sessions", groupColumn: "circle_id", groupTable: "quran_circles"},
	models.SessionKindInteractive: {table: "interactive_course_sessions", groupColumn: "course_id", groupTable: "interactive_courses"},
}

func tableFor(kind models.SessionKind) (kindTable, error) {
	t, ok := kindTables[kind]
	if !ok {
		return kindTable{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

func (t kindTable) selectQuery() string {
	group := "NULL::text"
	if t.groupColumn != "" {
		group = t.groupColumn
	}
	return fmt.Sprintf(`SELECT id, academy_id, status, scheduled_at, duration_minutes, meeting_room_name,
		started_at, ended_at, actual_duration_minutes, teacher_user_id, student_user_id, %s, updated_at
		FROM %s WHERE id = $1`, group, t.table)
}

func (t kindTable) casStatusQuery() string {
	return fmt.Sprintf(`UPDATE %s SET status = $3,
		started_at = COALESCE($4, started_at),
		ended_at = COALESCE($5, ended_at),
		actual_duration_minutes = COALESCE($6, actual_duration_minutes),
		updated_at = NOW()
		WHERE id = $1 AND status = $2`, t.table)
}

func (t kindTable) groupOverrideQuery() string {
	if t.groupTable == "" {
		return ""
	}
	return fmt.Sprintf(`SELECT preparation_minutes, ending_buffer_minutes, default_duration_minutes
		FROM %s WHERE id = $1`, t.groupTable)
}
