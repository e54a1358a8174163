package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/soundwave-agency/agency-server/internal/audit"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/gate"
	"github.com/soundwave-agency/agency-server/internal/httputil"
	"github.com/soundwave-agency/agency-server/internal/middleware"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/service"
	"github.com/soundwave-agency/agency-server/internal/util"
)

// Authenticator is the slice of the auth service the login endpoints use.
type Authenticator interface {
	Authenticate(ctx context.Context, scope model.Role, identifier, password string) (*service.Principal, error)
	EstablishSession(ctx context.Context, priorToken string, p *service.Principal) (string, *model.SessionSnapshot, error)
	TerminateSession(ctx context.Context, token string) error
	SessionTTL() time.Duration
}

type AuthHandler struct {
	auth         Authenticator
	loginLimits  map[model.Role]func(http.Handler) http.Handler
	isProduction bool
}

// NewAuthHandler wires login endpoints for both scopes. loginLimits may hold
// a rate-limit middleware per scope.
func NewAuthHandler(auth Authenticator, loginLimits map[model.Role]func(http.Handler) http.Handler, isProduction bool) *AuthHandler {
	return &AuthHandler{auth: auth, loginLimits: loginLimits, isProduction: isProduction}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	for _, scope := range []model.Role{model.RoleManager, model.RoleClient} {
		r.Route("/"+string(scope), func(r chi.Router) {
			r.With(middleware.BlockIfRole(scope)).Get("/login", h.LoginForm(scope))
			r.With(middleware.BlockIfRole(scope), h.limit(scope)).Post("/login", h.Login(scope))
			r.Post("/logout", h.Logout(scope))
		})
	}

	return r
}

func (h *AuthHandler) limit(scope model.Role) func(http.Handler) http.Handler {
	if mw, ok := h.loginLimits[scope]; ok && mw != nil {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}

type loginFailure struct {
	Error      string              `json:"error"`
	Code       apperrors.ErrorCode `json:"code"`
	Identifier string              `json:"identifier"`
}

type loginSuccess struct {
	User     *model.SessionSnapshot `json:"user"`
	Redirect string                 `json:"redirect"`
}

func identifierField(scope model.Role) string {
	if scope == model.RoleManager {
		return "email"
	}
	return "username"
}

// LoginForm describes the login form for scope.
func (h *AuthHandler) LoginForm(scope model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"scope":            string(scope),
			"identifier_field": identifierField(scope),
			"action":           gate.LoginPath(scope),
		})
	}
}

func (h *AuthHandler) Login(scope model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier, password, err := readCredentials(r, scope)
		if err != nil {
			writeLoginFailure(w, err, identifier)
			return
		}

		principal, err := h.auth.Authenticate(r.Context(), scope, identifier, password)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrCodeDatabase) {
				log.Error().Err(err).Str("scope", string(scope)).Msg("login lookup failed")
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Role:    string(scope),
				Details: map[string]interface{}{
					"reason":     string(apperrors.GetCode(err)),
					"identifier": util.MaskIdentifier(identifier),
				},
			})
			writeLoginFailure(w, err, identifier)
			return
		}

		token, snapshot, err := h.auth.EstablishSession(r.Context(), middleware.GetSessionToken(r.Context()), principal)
		if err != nil {
			log.Error().Err(err).Int64("accountId", principal.Account.ID).Msg("failed to establish session")
			audit.LogFromRequest(r, audit.Event{
				Type:      audit.EventSessionError,
				AccountID: principal.Account.ID,
				Role:      string(scope),
			})
			middleware.ClearSessionCookie(w, middleware.IsSecureRequest(r, h.isProduction))
			writeLoginFailure(w, err, identifier)
			return
		}

		middleware.SetSessionCookie(w, token, h.auth.SessionTTL(), middleware.IsSecureRequest(r, h.isProduction))
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventLoginSuccess,
			AccountID: snapshot.AccountID,
			Role:      string(snapshot.Role),
		})

		target := gate.DashboardPath(scope)
		if !middleware.WantsJSON(r) {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, loginSuccess{User: snapshot, Redirect: target})
	}
}

// Logout always clears the cookie, even when the store fails.
func (h *AuthHandler) Logout(scope model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.GetSession(r.Context())
		if err := h.auth.TerminateSession(r.Context(), middleware.GetSessionToken(r.Context())); err != nil {
			log.Warn().Err(err).Msg("logout: session not destroyed")
		}
		middleware.ClearSessionCookie(w, middleware.IsSecureRequest(r, h.isProduction))

		event := audit.Event{Type: audit.EventLogout, Role: string(scope)}
		if session != nil {
			event.AccountID = session.AccountID
		}
		audit.LogFromRequest(r, event)

		target := gate.LoginPath(scope)
		if !middleware.WantsJSON(r) {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": target})
	}
}

func readCredentials(r *http.Request, scope model.Role) (identifier, password string, err error) {
	var body struct {
		Email      string `json:"email"`
		Username   string `json:"username"`
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &body); err != nil {
			return "", "", err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return "", "", apperrors.ValidationError("Invalid form body")
		}
		body.Email = r.PostFormValue("email")
		body.Username = r.PostFormValue("username")
		body.Identifier = r.PostFormValue("identifier")
		body.Password = r.PostFormValue("password")
	}

	identifier = body.Identifier
	if scope == model.RoleManager && body.Email != "" {
		identifier = body.Email
	}
	if scope == model.RoleClient && body.Username != "" {
		identifier = body.Username
	}
	return strings.TrimSpace(identifier), body.Password, nil
}

func writeLoginFailure(w http.ResponseWriter, err error, identifier string) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.IsInternal() || appErr.Code == apperrors.ErrCodeSession {
		appErr = apperrors.New(apperrors.ErrCodeSession, apperrors.MsgLoginFailed)
	}
	writeJSON(w, httputil.StatusFromCode(appErr.Code), loginFailure{
		Error:      appErr.Message,
		Code:       appErr.Code,
		Identifier: identifier,
	})
}
