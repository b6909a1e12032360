// Package delivery holds what the HTTP and gRPC transports share: the
// mapping from service errors to client-facing codes.
package delivery

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/sessiongate/internal/auth"
	"github.com/vogiaan1904/sessiongate/internal/service"
	pkgErrors "github.com/vogiaan1904/sessiongate/pkg/errors"
	"google.golang.org/grpc/codes"
)

var (
	ErrSessionNotFound      = pkgErrors.NewBusinessError("SGT001", "Session not found")
	ErrInvalidSessionKind   = pkgErrors.NewBusinessError("SGT002", "Invalid session type")
	ErrJoinNotAllowed       = pkgErrors.NewBusinessError("SGT003", "Joining is not available right now")
	ErrNotInMeeting         = pkgErrors.NewBusinessError("SGT004", "You are not in the meeting")
	ErrNotSessionTeacher    = pkgErrors.NewBusinessError("SGT005", "Only the session teacher can do this")
	ErrTransitionNotAllowed = pkgErrors.NewBusinessError("SGT006", "Session status does not allow this action")
	ErrInvalidUser          = pkgErrors.NewBusinessError("SGT007", "Missing user")
	ErrUnauthenticated      = pkgErrors.NewBusinessError("SGT008", "Authentication required")
	ErrInvalidRequest       = pkgErrors.NewBusinessError("SGT009", "Invalid request")
)

type mapping struct {
	target   error
	be       *pkgErrors.BusinessError
	httpCode int
	grpcCode codes.Code
}

var mappings = []mapping{
	{service.ErrSessionNotFound, ErrSessionNotFound, http.StatusNotFound, codes.NotFound},
	{service.ErrInvalidSessionKind, ErrInvalidSessionKind, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrJoinNotAllowed, ErrJoinNotAllowed, http.StatusForbidden, codes.FailedPrecondition},
	{service.ErrNotInMeeting, ErrNotInMeeting, http.StatusNotFound, codes.NotFound},
	{service.ErrNotSessionTeacher, ErrNotSessionTeacher, http.StatusForbidden, codes.PermissionDenied},
	{service.ErrTransitionNotAllowed, ErrTransitionNotAllowed, http.StatusConflict, codes.FailedPrecondition},
	{service.ErrInvalidUser, ErrInvalidUser, http.StatusUnauthorized, codes.Unauthenticated},
	{auth.ErrTokenEmpty, ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
	{auth.ErrTokenInvalid, ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
	{auth.ErrTokenInvalidClaims, ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
	{auth.ErrTokenUnexpectedSignature, ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
	{auth.ErrNoPrincipal, ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
}

func lookup(err error) (mapping, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return mapping{}, false
}

// MapHTTPError converts known errors to *HTTPError. Unknown errors are
// returned unchanged and end up as 500s.
func MapHTTPError(err error) error {
	if m, ok := lookup(err); ok {
		return pkgErrors.NewHTTPError(m.httpCode, m.be)
	}
	return err
}

// MapGRPCError is the gRPC counterpart of MapHTTPError.
func MapGRPCError(err error) error {
	if m, ok := lookup(err); ok {
		return pkgErrors.NewGRPCError(m.grpcCode, m.be)
	}
	return err
}

// IsClientError reports whether err maps to a known client-facing error.
func IsClientError(err error) bool {
	_, ok := lookup(err)
	return ok
}
