package lifecycle

import "github.com/vogiaan1904/sessiongate/internal/models"

// ClassifyRole resolves the caller's effective role for s. Teacher rights
// require both a teacher claim and the session's teacher link; anything
// short of that gets student permissions.
func ClassifyRole(s *models.Session, userID string, claimed models.Role) models.RoleContext {
	rc := models.RoleContext{
		UserID:      userID,
		Role:        models.RoleStudent,
		OwnsSession: s != nil && s.IsParticipant(userID),
	}

	if claimed == models.RoleTeacher && s != nil && s.IsTeacher(userID) {
		rc.Role = models.RoleTeacher
	}

	return rc
}
