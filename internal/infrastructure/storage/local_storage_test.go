package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/infrastructure/config"
)

func TestLocalObjectStorage(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalObjectStorage(root, "/uploads/", time.Minute)
	require.NoError(t, err)

	t.Run("put then url then delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "iqa/7/img.png", strings.NewReader("png"), 3, "image/png"))

		data, err := os.ReadFile(filepath.Join(root, "iqa", "7", "img.png"))
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))

		url, expires, err := s.DownloadURL(ctx, "iqa/7/img.png")
		require.NoError(t, err)
		assert.Equal(t, "/uploads/iqa/7/img.png", url)
		assert.False(t, expires.IsZero())

		require.NoError(t, s.Delete(ctx, "iqa/7/img.png"))
		_, err = os.Stat(filepath.Join(root, "iqa", "7", "img.png"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("deleting a missing object succeeds", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "iqa/1/missing.png"))
	})

	t.Run("url for missing object fails", func(t *testing.T) {
		_, _, err := s.DownloadURL(ctx, "iqa/1/missing.png")
		assert.Error(t, err)
	})

	t.Run("rejects keys escaping the root", func(t *testing.T) {
		for _, key := range []string{"", "../x.png", "iqa/../../x.png", "/abs.png", "iqa//x.png"} {
			err := s.Put(ctx, key, strings.NewReader("x"), 1, "image/png")
			assert.Error(t, err, key)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("local driver", func(t *testing.T) {
		cfg := &config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), PublicBaseURL: "/uploads"}
		s, err := New(context.Background(), cfg, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &LocalObjectStorage{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := New(context.Background(), &config.StorageConfig{Driver: "ftp"}, zap.NewNop())
		assert.Error(t, err)
	})
}
