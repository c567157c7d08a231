package guard

import (
	"context"
	"net/http"

	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/internal/respond"
	"github.com/gaelruiz9024/fraud-dashboard/internal/session"
)

// Session is the slice of the session guard route protection needs.
type Session interface {
	Wait(ctx context.Context) error
	State() session.State
}

type Guard struct {
	session Session
}

func New(s Session) *Guard {
	return &Guard{session: s}
}

// RequireAdmin lets only a settled, authenticated admin session through.
// While tokens are still loading the decision is deferred, not denied.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.session.Wait(r.Context()); err != nil {
			respond.ErrorWithCode(w, http.StatusServiceUnavailable, respond.CODE_SESSION_LOADING)
			return
		}
		st := g.session.State()
		if !st.IsAuthenticated {
			respond.ErrorWithRedirect(w, http.StatusUnauthorized, respond.CODE_SESSION_EXPIRED, session.LoginRoute)
			return
		}
		if !st.IsAdmin {
			respond.ErrorWithRedirect(w, http.StatusForbidden, respond.CODE_FORBIDDEN, session.LoginRoute)
			return
		}
		next.ServeHTTP(w, r)
	})
}
