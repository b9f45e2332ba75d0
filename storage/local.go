package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mygallery/errs"
)

// Local writes files into a directory served under urlPrefix.
type Local struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) *Local {
	return &Local{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Store(ctx context.Context, file File) (string, error) {
	if file.Empty() {
		return "", errEmpty()
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Upload cancelled")
	}

	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to create upload directory")
	}

	filename := objectName(file.Name)
	path := filepath.Join(l.dir, filename)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to save file")
	}
	if _, err := io.Copy(out, file.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", errs.Wrap(errs.KindStorage, err, "Failed to save file")
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", errs.Wrap(errs.KindStorage, err, "Failed to save file")
	}

	return l.urlPrefix + "/" + filename, nil
}
