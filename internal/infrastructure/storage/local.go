// Package storage saves meal images on local disk or in S3
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStorage writes images below a directory served at a public path
type LocalStorage struct {
	dir        string
	publicPath string
	logger     *zap.Logger
}

// NewLocalStorage creates dir if needed
func NewLocalStorage(dir, publicPath string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStorage{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		logger:     logger.Named("local-storage"),
	}, nil
}

// Dir returns the directory images are written to
func (s *LocalStorage) Dir() string {
	return s.dir
}

// PublicPath returns the URL prefix images are served under
func (s *LocalStorage) PublicPath() string {
	return s.publicPath
}

// Store writes data to dir/filename and returns its public URL
func (s *LocalStorage) Store(_ context.Context, filename, _ string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path.Join(s.publicPath, name), nil
}

// Remove deletes a file previously returned by Store. URLs outside the
// public path are ignored.
func (s *LocalStorage) Remove(_ context.Context, url string) error {
	name, ok := s.localName(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove upload", zap.String("url", url), zap.Error(err))
		return err
	}
	return nil
}

func (s *LocalStorage) localName(url string) (string, bool) {
	prefix := s.publicPath + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || name != filepath.Base(name) || name == ".." {
		return "", false
	}
	return name, true
}
