// Package storage persists uploaded image bytes and hands back a URL the
// browser can load them from.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mygallery/config"
	"mygallery/errs"
)

// File is one uploaded binary.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Empty reports whether there is nothing to store.
func (f *File) Empty() bool {
	return f == nil || f.Body == nil || f.Size <= 0
}

// Backend stores a file and returns its retrieval URL.
type Backend interface {
	Name() string
	Store(ctx context.Context, file File) (string, error)
}

// New returns the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Backend, error) {
	switch cfg.Driver {
	case config.DriverLocal:
		return NewLocal(cfg.Local.Dir, cfg.Local.URLPrefix), nil
	case config.DriverImgBB:
		return NewImgBB(cfg.ImgBB, nil, log), nil
	case config.DriverS3:
		return NewS3(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// objectName generates a collision-resistant name keeping the file's
// extension.
func objectName(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

func errEmpty() error {
	return errs.E(errs.KindStorage, "No image data to store")
}
