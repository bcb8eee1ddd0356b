// Package storage stores uploaded document bytes either on S3 or under a
// local uploads/ directory. The backend is not fixed per deployment: each
// call checks the configuration (uploads) or the path shape (downloads and
// deletes — S3 keys carry the documenti/ prefix).
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// S3KeyPrefix marks a storage path as living in the S3 bucket.
const S3KeyPrefix = "documenti/"

// Store is the interface route handlers consume.
type Store interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("file not found")

// Router dispatches between the S3 store (when configured) and the local
// filesystem fallback.
type Router struct {
	s3    *S3Store // nil when AWS is not fully configured
	local *LocalStore
}

func NewRouter(s3 *S3Store, local *LocalStore) *Router {
	return &Router{s3: s3, local: local}
}

func (r *Router) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if r.s3 != nil {
		return r.s3.Upload(ctx, name, data, contentType)
	}
	return r.local.Upload(ctx, name, data, contentType)
}

func (r *Router) Download(ctx context.Context, path string) ([]byte, error) {
	if r.s3 != nil && strings.HasPrefix(path, S3KeyPrefix) {
		return r.s3.Download(ctx, path)
	}
	return r.local.Download(ctx, path)
}

func (r *Router) Delete(ctx context.Context, path string) error {
	if r.s3 != nil && strings.HasPrefix(path, S3KeyPrefix) {
		return r.s3.Delete(ctx, path)
	}
	return r.local.Delete(ctx, path)
}

// LocalStore keeps files under a base directory.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (l *LocalStore) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(l.baseDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (l *LocalStore) Download(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (l *LocalStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
