package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumnsDDL = `
		id TEXT PRIMARY KEY,
		academy_id TEXT NOT NULL,
		status session_status NOT NULL DEFAULT 'unscheduled',
		scheduled_at TIMESTAMPTZ,
		duration_minutes INTEGER,
		meeting_room_name TEXT,
		started_at TIMESTAMPTZ,
		ended_at TIMESTAMPTZ,
		actual_duration_minutes INTEGER,
		teacher_user_id TEXT,
		student_user_id TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('unscheduled', 'scheduled', 'ready', 'ongoing', 'completed', 'cancelled', 'absent'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS academy_settings (
		academy_id TEXT PRIMARY KEY,
		preparation_minutes INTEGER,
		ending_buffer_minutes INTEGER,
		default_duration_minutes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS quran_circles (
		id TEXT PRIMARY KEY,
		preparation_minutes INTEGER,
		ending_buffer_minutes INTEGER,
		default_duration_minutes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS interactive_courses (
		id TEXT PRIMARY KEY,
		preparation_minutes INTEGER,
		ending_buffer_minutes INTEGER,
		default_duration_minutes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS academic_sessions (` + sessionColumnsDDL + `
	)`,
	`CREATE TABLE IF NOT EXISTS quran_sessions (` + sessionColumnsDDL + `,
		circle_id TEXT REFERENCES quran_circles(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interactive_course_sessions (` + sessionColumnsDDL + `,
		course_id TEXT REFERENCES interactive_courses(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_reports (
		session_kind TEXT NOT NULL,
		session_id TEXT NOT NULL,
		student_user_id TEXT NOT NULL,
		attendance_status TEXT NOT NULL,
		actual_attendance_minutes INTEGER NOT NULL DEFAULT 0,
		attendance_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
		is_late BOOLEAN NOT NULL DEFAULT FALSE,
		late_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_kind, session_id, student_user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_academic_sessions_active ON academic_sessions (scheduled_at) WHERE status IN ('scheduled', 'ready', 'ongoing')`,
	`CREATE INDEX IF NOT EXISTS idx_quran_sessions_active ON quran_sessions (scheduled_at) WHERE status IN ('scheduled', 'ready', 'ongoing')`,
	`CREATE INDEX IF NOT EXISTS idx_interactive_course_sessions_active ON interactive_course_sessions (scheduled_at) WHERE status IN ('scheduled', 'ready', 'ongoing')`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for i, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}
