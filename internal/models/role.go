package models

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) IsValid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// RoleContext describes the caller relative to one session.
type RoleContext struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	OwnsSession bool   `json:"owns_session"`
}

func (rc RoleContext) IsTeacher() bool {
	return rc.Role == RoleTeacher
}
