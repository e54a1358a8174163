package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/httputil"
)

// AvatarFileHandler serves stored avatars by file name. Directory listings
// and nested paths are refused.
type AvatarFileHandler struct {
	dir string
}

func NewAvatarFileHandler(dir string) *AvatarFileHandler {
	return &AvatarFileHandler{dir: dir}
}

func (h *AvatarFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		httputil.WriteError(w, apperrors.NotFound("Avatar"))
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		httputil.WriteError(w, apperrors.NotFound("Avatar"))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
