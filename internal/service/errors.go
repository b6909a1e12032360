package service

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidSessionKind   = errors.New("invalid session kind")
	ErrJoinNotAllowed       = errors.New("joining is not allowed right now")
	ErrNotInMeeting         = errors.New("user is not in the meeting")
	ErrNotSessionTeacher    = errors.New("user is not the session teacher")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrInvalidUser          = errors.New("user id is required")
)
