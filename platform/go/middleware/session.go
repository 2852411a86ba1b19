package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformlogging "github.com/opsfloor/helpdesk/platform/go/logging"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// ErrSessionInvalid is what a SessionResolver returns for a token that is
// absent, unknown, or minted under a different tenant. The three cases are
// indistinguishable on purpose.
var ErrSessionInvalid = errors.New("session invalid")

// SessionResolver authenticates an opaque session token under the request's
// resolved tenant. Implemented by a thin adapter over the auth service.
type SessionResolver interface {
	ResolveSession(ctx context.Context, access requestscope.Access, token string) (uuid.UUID, error)
}

// RequireSession guards authenticated routes. It must run after WithTenant:
// the token is only honored when its user belongs to the request's tenant,
// and the resulting user id is bound onto the request scope for the data
// layer to stamp.
func RequireSession(sessions SessionResolver, cookieName string) func(http.Handler) http.Handler {
	if sessions == nil {
		panic("session middleware: resolver is required")
	}
	if cookieName == "" {
		panic("session middleware: cookie name is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := requestscope.FromContext(r.Context())
			if !ok {
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			access, err := scope.Access()
			if err != nil {
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeAlert(w, http.StatusUnauthorized, "Please log in")
				return
			}

			userID, err := sessions.ResolveSession(r.Context(), access, cookie.Value)
			if err != nil {
				if errors.Is(err, ErrSessionInvalid) {
					writeAlert(w, http.StatusUnauthorized, "Please log in")
					return
				}
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			if err := scope.BindUser(userID); err != nil {
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := r.Context()
			if logger, found := platformlogging.FromContext(ctx); found {
				ctx = platformlogging.WithLogger(ctx, logger.With(zap.String("user_id", userID.String())))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
