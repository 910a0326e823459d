package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	qualityapp "github.com/qcms/backend/internal/application/quality"
)

var _ qualityapp.ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage keeps objects as files below a root directory that the
// HTTP server exposes under a public URL prefix
type LocalObjectStorage struct {
	root    string
	baseURL string
	expiry  time.Duration
	now     func() time.Time
}

// NewLocalObjectStorage creates root if needed
func NewLocalObjectStorage(root, baseURL string, expiry time.Duration) (*LocalObjectStorage, error) {
	if root == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &LocalObjectStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		expiry:  expiry,
		now:     time.Now,
	}, nil
}

// Root returns the directory objects are stored in
func (s *LocalObjectStorage) Root() string {
	return s.root
}

func (s *LocalObjectStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes body to a temporary file and renames it into place
func (s *LocalObjectStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store object: %w", err)
	}
	return nil
}

// Delete removes the file for key; a missing file is not an error
func (s *LocalObjectStorage) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// DownloadURL returns the public URL for key
func (s *LocalObjectStorage) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := os.Stat(p); err != nil {
		return "", time.Time{}, fmt.Errorf("object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, s.now().Add(s.expiry), nil
}
