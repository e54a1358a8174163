package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid GIF and PNG headers are enough for content sniffing
var (
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
)

func newTestStore(t *testing.T, maxBytes int64) *AvatarStore {
	t.Helper()
	store, err := NewAvatarStore(filepath.Join(t.TempDir(), "avatars"), maxBytes)
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(1718000000000) }
	return store
}

func TestAvatarStore_Save(t *testing.T) {
	namePattern := regexp.MustCompile(`^/uploads/avatars/avatar-1718000000000-[0-9a-f]{32}\.gif$`)

	t.Run("stores allowed image under generated name", func(t *testing.T) {
		store := newTestStore(t, 1024)

		ref, err := store.Save("image/gif", bytes.NewReader(gifBytes))
		require.NoError(t, err)
		assert.Regexp(t, namePattern, ref)

		data, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(ref, AvatarURLPrefix)))
		require.NoError(t, err)
		assert.Equal(t, gifBytes, data)
	})

	t.Run("each save gets a distinct name", func(t *testing.T) {
		store := newTestStore(t, 1024)

		ref1, err := store.Save("image/gif", bytes.NewReader(gifBytes))
		require.NoError(t, err)
		ref2, err := store.Save("image/gif", bytes.NewReader(gifBytes))
		require.NoError(t, err)
		assert.NotEqual(t, ref1, ref2)
	})

	t.Run("accepts image/jpg alias and parameters", func(t *testing.T) {
		assert.True(t, IsAllowedType("image/jpg"))
		assert.True(t, IsAllowedType("image/PNG; charset=binary"))
		assert.False(t, IsAllowedType("application/pdf"))
	})

	t.Run("rejects non-image declared type", func(t *testing.T) {
		store := newTestStore(t, 1024)
		_, err := store.Save("application/pdf", bytes.NewReader(gifBytes))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("rejects content that does not match declared type", func(t *testing.T) {
		store := newTestStore(t, 1024)
		_, err := store.Save("image/gif", bytes.NewReader(pngBytes))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("rejects oversized blob", func(t *testing.T) {
		store := newTestStore(t, 16)
		_, err := store.Save("image/gif", bytes.NewReader(gifBytes))
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("rejects empty blob", func(t *testing.T) {
		store := newTestStore(t, 1024)
		_, err := store.Save("image/png", bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

func TestAvatarStore_Discard(t *testing.T) {
	store := newTestStore(t, 1024)

	ref, err := store.Save("image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, store.Discard(ref))
	_, err = os.Stat(filepath.Join(store.Dir(), strings.TrimPrefix(ref, AvatarURLPrefix)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Discard(ref), "discarding twice is fine")
	assert.Error(t, store.Discard("/uploads/avatars/../secret"))
}
