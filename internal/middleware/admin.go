package middleware

import (
	"context"
	"net/http"

	"go-user-auth/internal/model"
	"go-user-auth/internal/session"
)

// sessionExtractor is the slice of the session extractor the gate needs.
type sessionExtractor interface {
	Session(r *http.Request, source session.Source) (model.SessionUser, error)
}

type contextKey string

const sessionContextKey contextKey = "session_user"

// AdminGate authorizes requests carrying an admin access token. Extraction
// failure and an insufficient role both answer with the same generic 401;
// verification internals never leak.
type AdminGate struct {
	sessions sessionExtractor
}

func NewAdminGate(sessions sessionExtractor) *AdminGate {
	return &AdminGate{sessions: sessions}
}

func (g *AdminGate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.sessions.Session(r, session.FromHeader)
		if err != nil || sess.Role != model.RoleAdmin {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session attached by RequireAdmin.
func SessionFromContext(ctx context.Context) (model.SessionUser, bool) {
	sess, ok := ctx.Value(sessionContextKey).(model.SessionUser)
	return sess, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = jsonEncode(w, model.ErrorResponse{Error: "Unauthorized"})
}
