// Package services implements the gallery's application logic: upload
// validation, storage, persistence and the category referential guard.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mygallery/db"
	"mygallery/errs"
	"mygallery/hub"
	"mygallery/storage"
)

// Notifier receives an event after every successful mutation.
type Notifier interface {
	Publish(ev hub.Event)
}

// UploadObserver records storage backend calls.
type UploadObserver interface {
	ObserveUpload(backend string, size int64, took time.Duration, err error)
}

type Gallery struct {
	store   *db.Store
	backend storage.Backend
	events  Notifier
	metrics UploadObserver
	log     *zap.Logger
}

// NewGallery wires the service. events and metrics may be nil.
func NewGallery(store *db.Store, backend storage.Backend, events Notifier, metrics UploadObserver, log *zap.Logger) *Gallery {
	return &Gallery{
		store:   store,
		backend: backend,
		events:  events,
		metrics: metrics,
		log:     log.Named("gallery"),
	}
}

func (g *Gallery) publish(eventType string, data any) {
	if g.events == nil {
		return
	}
	g.events.Publish(hub.Event{Type: eventType, Data: data})
}

// storeFile hands file to the backend. Every failure comes back as a
// storage error.
func (g *Gallery) storeFile(ctx context.Context, file storage.File) (string, error) {
	start := time.Now()
	url, err := g.backend.Store(ctx, file)
	if g.metrics != nil {
		g.metrics.ObserveUpload(g.backend.Name(), file.Size, time.Since(start), err)
	}
	if err != nil {
		g.log.Error("storing image failed",
			zap.String("backend", g.backend.Name()),
			zap.String("filename", file.Name),
			zap.Error(err),
		)
		if errs.KindOf(err) != errs.KindStorage {
			err = errs.Wrap(errs.KindStorage, err, "Failed to store image")
		}
		return "", err
	}
	g.log.Info("stored image",
		zap.String("backend", g.backend.Name()),
		zap.String("url", url),
		zap.Int64("size", file.Size),
	)
	return url, nil
}

// orphaned logs a stored blob whose database write failed. It is not removed.
func (g *Gallery) orphaned(url string, cause error) {
	g.log.Warn("stored image has no photo record",
		zap.String("backend", g.backend.Name()),
		zap.String("url", url),
		zap.Error(cause),
	)
}

func internal(err error, message string) error {
	return errs.Wrap(errs.KindInternal, err, message)
}
