package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/soundwave-agency/agency-server/internal/audit"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/httputil"
	"github.com/soundwave-agency/agency-server/internal/util"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFFormField  = "csrf_token"
)

// CSRFMiddleware implements the double-submit cookie pattern. State-changing
// requests must echo the csrf_token cookie in the X-CSRF-Token header or, for
// urlencoded forms, the csrf_token field.
type CSRFMiddleware struct {
	isProduction bool
	maxAge       time.Duration
}

func NewCSRFMiddleware(isProduction bool, maxAge time.Duration) *CSRFMiddleware {
	return &CSRFMiddleware{isProduction: isProduction, maxAge: maxAge}
}

func (m *CSRFMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			token, err := util.GenerateToken()
			if err != nil {
				httputil.WriteError(w, apperrors.Internal("Failed to generate security token").WithCause(err))
				return
			}
			m.setCSRFCookie(w, r, token)
			cookie = &http.Cookie{Value: token}
		}

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(CSRFHeaderName)
		if submitted == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			submitted = r.PostFormValue(CSRFFormField)
		}
		if submitted == "" || !util.ConstantTimeEqual(cookie.Value, submitted) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventCSRFFailure})
			httputil.WriteError(w, apperrors.Forbidden("Invalid or missing CSRF token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CSRFMiddleware) setCSRFCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: false, // read by the page script and echoed in the header
		Secure:   IsSecureRequest(r, m.isProduction),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}
