package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundwave-agency/agency-server/internal/audit"
	"github.com/soundwave-agency/agency-server/internal/model"
)

const SessionCookieName = "session_token"

type contextKey string

const (
	SessionContextKey      contextKey = "session"
	SessionTokenContextKey contextKey = "sessionToken"
)

// SessionResolver looks up the snapshot behind a raw session token.
// *service.AuthService satisfies it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.SessionSnapshot, error)
}

// GetSession returns the snapshot loaded for this request, or nil.
func GetSession(ctx context.Context) *model.SessionSnapshot {
	if session, ok := ctx.Value(SessionContextKey).(*model.SessionSnapshot); ok {
		return session
	}
	return nil
}

// GetSessionToken returns the raw cookie token presented with this request.
// It is set even when the token no longer resolves.
func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenContextKey).(string); ok {
		return token
	}
	return ""
}

// WithSession stores a snapshot and token the way SessionMiddleware does.
func WithSession(ctx context.Context, token string, session *model.SessionSnapshot) context.Context {
	ctx = context.WithValue(ctx, SessionTokenContextKey, token)
	if session != nil {
		ctx = context.WithValue(ctx, SessionContextKey, session)
	}
	return ctx
}

// SessionMiddleware loads the session snapshot named by the cookie. It never
// rejects a request; gates decide what an anonymous request may reach.
type SessionMiddleware struct {
	sessions SessionResolver
}

func NewSessionMiddleware(sessions SessionResolver) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.sessions.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: failed to load session")
			audit.LogFromRequest(r, audit.Event{Type: audit.EventSessionError})
			session = nil
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), cookie.Value, session)))
	})
}

// IsSecureRequest reports whether cookies for r must carry the Secure flag:
// always in production, and whenever the request arrived over TLS directly
// or through a proxy terminating it.
func IsSecureRequest(r *http.Request, isProduction bool) bool {
	return isProduction || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
