package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soundwave-agency/agency-server/internal/audit"
	"github.com/soundwave-agency/agency-server/internal/config"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/middleware"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/service"
)

const avatarFormField = "avatar"

// ProfileManager is the client-facing self-service.
type ProfileManager interface {
	GetOwnProfile(ctx context.Context, accountID int64) (*model.ClientDetail, error)
	UpdateAvatar(ctx context.Context, accountID int64, sessionToken string, upload service.AvatarUpload) (string, error)
	ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword string) error
}

type ProfileHandler struct {
	profiles ProfileManager
}

func NewProfileHandler(profiles ProfileManager) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Routes expects to be mounted behind RequireRole(client). The avatar upload
// gets its own, larger body limit.
func (h *ProfileHandler) Routes(bodyLimit, avatarBodyLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(bodyLimit).Get("/", h.Get)
	r.With(avatarBodyLimit).Post("/avatar", h.UploadAvatar)
	r.With(bodyLimit).Post("/change-password", h.ChangePassword)

	return r
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	detail, err := h.profiles.GetOwnProfile(r.Context(), session.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    session,
		"profile": detail,
	})
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := r.ParseMultipartForm(config.MultipartMemoryBuffer); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperrors.ValidationError("Avatar upload too large"))
			return
		}
		writeError(w, r, apperrors.ValidationError("Invalid multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		writeError(w, r, apperrors.ValidationError("No file uploaded"))
		return
	}
	defer file.Close()

	ref, err := h.profiles.UpdateAvatar(r.Context(), session.AccountID, middleware.GetSessionToken(r.Context()), service.AvatarUpload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventAvatarUpdate,
		AccountID: session.AccountID,
		Role:      string(session.Role),
		Details:   map[string]interface{}{"avatar": ref},
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "avatar": ref})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.profiles.ChangePassword(r.Context(), session.AccountID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventPasswordChange,
		AccountID: session.AccountID,
		Role:      string(session.Role),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed successfully",
	})
}
