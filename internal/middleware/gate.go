package middleware

import (
	"net/http"
	"strings"

	"github.com/soundwave-agency/agency-server/internal/audit"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/gate"
	"github.com/soundwave-agency/agency-server/internal/httputil"
	"github.com/soundwave-agency/agency-server/internal/model"
)

// DeniedResponse is the JSON body for a gate denial.
type DeniedResponse struct {
	Error    string              `json:"error"`
	Code     apperrors.ErrorCode `json:"code"`
	Redirect string              `json:"redirect"`
}

// RequireRole admits only sessions authenticated as role.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			decision := gate.RequireRole(session, role)
			if decision.Admit {
				next.ServeHTTP(w, r)
				return
			}

			event := audit.Event{
				Type:    audit.EventAccessDenied,
				Details: map[string]interface{}{"required_role": string(role), "path": r.URL.Path},
			}
			if session != nil {
				event.AccountID = session.AccountID
				event.Role = string(session.Role)
			}
			audit.LogFromRequest(r, event)

			deny(w, r, decision.Redirect, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Authentication required")
		})
	}
}

// BlockIfRole keeps sessions already authenticated as role off that role's
// login endpoints.
func BlockIfRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := gate.BlockIfRole(GetSession(r.Context()), role)
			if decision.Admit {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, r, decision.Redirect, http.StatusForbidden, apperrors.ErrCodeForbidden, "Already signed in")
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, target string, status int, code apperrors.ErrorCode, message string) {
	if WantsJSON(r) {
		httputil.WriteJSON(w, status, DeniedResponse{Error: message, Code: code, Redirect: target})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// WantsJSON reports whether the caller is an API client rather than a
// browser navigation.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
