package middleware

import (
	"context"
	"net/http"

	"github.com/memotag/memotag-server/internal/session"
)

const (
	SessionCookie = "session"

	sessionContextKey contextKey = "sessionPayload"
)

// GetSessionPayload returns the payload attached by SessionMiddleware, or
// nil outside a protected route.
func GetSessionPayload(ctx context.Context) session.Payload {
	if payload, ok := ctx.Value(sessionContextKey).(session.Payload); ok {
		return payload
	}
	return nil
}

// SessionMiddleware guards admin routes. A request passes only when its
// cookie resolves to a live session; any store trouble on the way reads as
// "no session" and the request is denied. Each accepted request slides the
// expiry window forward.
type SessionMiddleware struct {
	sessions *session.Manager
}

func NewSessionMiddleware(sessions *session.Manager) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := SessionToken(r)

		payload := m.sessions.GetSession(r.Context(), token)
		if payload == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		m.sessions.ExtendSession(r.Context(), token)

		ctx := context.WithValue(r.Context(), sessionContextKey, payload)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionToken extracts the raw token from the request cookie, "" when
// absent.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func SetSessionCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
