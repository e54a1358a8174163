package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// AvatarURLPrefix is the public path avatar references are served under.
const AvatarURLPrefix = "/uploads/avatars/"

var (
	ErrUnsupportedType = errors.New("only image files are allowed (jpeg, jpg, png, gif)")
	ErrTooLarge        = errors.New("avatar exceeds the maximum upload size")
	ErrEmpty           = errors.New("avatar file is empty")
)

// declared media type -> canonical type the content must sniff as
var allowedAvatarTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/gif":  "image/gif",
}

// AvatarStore writes avatar blobs to a directory. Files are never
// overwritten: every save gets a fresh name.
type AvatarStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewAvatarStore(dir string, maxBytes int64) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &AvatarStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *AvatarStore) Dir() string {
	return s.dir
}

func (s *AvatarStore) MaxBytes() int64 {
	return s.maxBytes
}

// IsAllowedType reports whether declaredType is an accepted avatar media type.
func IsAllowedType(declaredType string) bool {
	_, ok := allowedAvatarTypes[normalizeType(declaredType)]
	return ok
}

// Save validates and stores the blob, returning its public reference,
// e.g. /uploads/avatars/avatar-1718000000000-3f2a9c1e....png.
func (s *AvatarStore) Save(declaredType string, r io.Reader) (string, error) {
	canonical, ok := allowedAvatarTypes[normalizeType(declaredType)]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is(canonical) {
		return "", ErrUnsupportedType
	}

	name := s.fileName(detected.Extension())
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close avatar file: %w", err)
	}

	return AvatarURLPrefix + name, nil
}

// Discard removes a stored avatar that never got referenced.
func (s *AvatarStore) Discard(ref string) error {
	name := strings.TrimPrefix(ref, AvatarURLPrefix)
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid avatar reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *AvatarStore) fileName(ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("avatar-%d-%s%s", s.now().UnixMilli(), random, ext)
}

func normalizeType(declaredType string) string {
	mediaType, _, _ := strings.Cut(declaredType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}
