// Package storage keeps attachment blobs in a directory-backed bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Bucket stores objects under root/name on an afero filesystem.
type Bucket struct {
	fs     afero.Fs
	name   string
	logger logger.Interface
}

// NewOSBucket returns a bucket on the local disk, creating its directory.
func NewOSBucket(root, name string, log logger.Interface) (*Bucket, error) {
	if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}
	return NewBucket(afero.NewBasePathFs(afero.NewOsFs(), root), name, log), nil
}

func NewBucket(fs afero.Fs, name string, log logger.Interface) *Bucket {
	return &Bucket{fs: fs, name: name, logger: log}
}

func (b *Bucket) Name() string {
	return b.name
}

// objectPath rejects keys that would escape the bucket.
func (b *Bucket) objectPath(key string) (string, error) {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errors.NewValidationError("invalid object path", key)
		}
	}
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", errors.NewValidationError("invalid object path", key)
	}
	return filepath.Join(b.name, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Store writes content at key. An existing object is never overwritten.
func (b *Bucket) Store(ctx context.Context, key string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := b.objectPath(key)
	if err != nil {
		return err
	}

	if err := b.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.NewInternalError("failed to prepare object directory").WithCause(err)
	}

	f, err := b.fs.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errors.NewConflictError("object already exists", key)
		}
		return errors.NewInternalError("failed to create object").WithCause(err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = b.fs.Remove(p)
		b.logger.Errorw("failed to write object", "bucket", b.name, "path", key, "error", err)
		return errors.NewInternalError("failed to write object").WithCause(err)
	}
	if err := f.Close(); err != nil {
		return errors.NewInternalError("failed to close object").WithCause(err)
	}

	b.logger.Debugw("object stored", "bucket", b.name, "path", key)
	return nil
}

// Open returns a reader for the object at key.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := b.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("object not found", key)
		}
		return nil, errors.NewInternalError("failed to open object").WithCause(err)
	}
	return f, nil
}

func (b *Bucket) Exists(key string) (bool, error) {
	p, err := b.objectPath(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(b.fs, p)
}
