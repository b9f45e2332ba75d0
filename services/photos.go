package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"mygallery/db"
	"mygallery/dto"
	"mygallery/errs"
	"mygallery/hub"
	"mygallery/models"
	"mygallery/storage"
)

// CreatePhotoInput takes either an uploaded file or the URL of an image
// hosted elsewhere. The file wins when both are set.
type CreatePhotoInput struct {
	File       *storage.File
	ImageURL   string
	CategoryID uint
}

// UpdatePhotoInput always moves the photo to CategoryID; File, when
// present, replaces the image.
type UpdatePhotoInput struct {
	CategoryID uint
	File       *storage.File
}

func (g *Gallery) ListPhotos(ctx context.Context, categoryID *uint) ([]dto.PhotoView, error) {
	photos, err := g.store.ListPhotos(ctx, categoryID)
	if err != nil {
		return nil, internal(err, "Failed to get photos")
	}
	return dto.ToPhotoViews(photos), nil
}

func (g *Gallery) GetPhoto(ctx context.Context, id uint) (dto.PhotoView, error) {
	photo, err := g.findPhoto(ctx, id)
	if err != nil {
		return dto.PhotoView{}, err
	}
	return dto.ToPhotoView(*photo), nil
}

func (g *Gallery) CreatePhoto(ctx context.Context, in CreatePhotoInput) (dto.PhotoView, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if in.File.Empty() && imageURL == "" {
		return dto.PhotoView{}, errs.E(errs.KindValidation, "No file was uploaded")
	}
	if err := g.requireCategory(ctx, in.CategoryID); err != nil {
		return dto.PhotoView{}, err
	}

	if !in.File.Empty() {
		url, err := g.storeFile(ctx, *in.File)
		if err != nil {
			return dto.PhotoView{}, err
		}
		imageURL = url
	}

	photo := &models.Photo{ImageURL: imageURL, CategoryID: in.CategoryID}
	if err := g.store.CreatePhoto(ctx, photo); err != nil {
		if !in.File.Empty() {
			g.orphaned(imageURL, err)
		}
		return dto.PhotoView{}, internal(err, "Failed to create photo")
	}

	view, err := g.GetPhoto(ctx, photo.ID)
	if err != nil {
		return dto.PhotoView{}, err
	}
	g.log.Info("photo created", zap.Uint("id", view.ID), zap.Uint("category_id", view.CategoryID))
	g.publish(hub.EventPhotoCreated, view)
	return view, nil
}

func (g *Gallery) UpdatePhoto(ctx context.Context, id uint, in UpdatePhotoInput) (dto.PhotoView, error) {
	photo, err := g.findPhoto(ctx, id)
	if err != nil {
		return dto.PhotoView{}, err
	}
	if err := g.requireCategory(ctx, in.CategoryID); err != nil {
		return dto.PhotoView{}, err
	}

	replaced := !in.File.Empty()
	if replaced {
		url, err := g.storeFile(ctx, *in.File)
		if err != nil {
			return dto.PhotoView{}, err
		}
		photo.ImageURL = url
	}
	photo.CategoryID = in.CategoryID

	if err := g.store.UpdatePhoto(ctx, photo); err != nil {
		if replaced {
			g.orphaned(photo.ImageURL, err)
		}
		if db.IsNotFound(err) {
			return dto.PhotoView{}, photoNotFound(id)
		}
		return dto.PhotoView{}, internal(err, "Failed to update photo")
	}

	view, err := g.GetPhoto(ctx, id)
	if err != nil {
		return dto.PhotoView{}, err
	}
	g.log.Info("photo updated", zap.Uint("id", id), zap.Bool("image_replaced", replaced))
	g.publish(hub.EventPhotoUpdated, view)
	return view, nil
}

// DeletePhoto removes the record and returns it as it was. The stored image
// is left in place.
func (g *Gallery) DeletePhoto(ctx context.Context, id uint) (dto.PhotoView, error) {
	photo, err := g.findPhoto(ctx, id)
	if err != nil {
		return dto.PhotoView{}, err
	}
	view := dto.ToPhotoView(*photo)

	if err := g.store.DeletePhoto(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return dto.PhotoView{}, photoNotFound(id)
		}
		return dto.PhotoView{}, internal(err, "Failed to delete photo")
	}

	g.log.Info("photo deleted", zap.Uint("id", id))
	g.publish(hub.EventPhotoDeleted, view)
	return view, nil
}

func (g *Gallery) findPhoto(ctx context.Context, id uint) (*models.Photo, error) {
	photo, err := g.store.GetPhoto(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, photoNotFound(id)
		}
		return nil, internal(err, "Failed to get photo")
	}
	return photo, nil
}

// requireCategory is a check before the write, not a lock: a concurrent
// delete of the category can still slip in between.
func (g *Gallery) requireCategory(ctx context.Context, id uint) error {
	exists, err := g.store.CategoryExists(ctx, id)
	if err != nil {
		return internal(err, "Failed to check category")
	}
	if !exists {
		return errs.E(errs.KindValidation, "Category with ID %d does not exist", id)
	}
	return nil
}

func photoNotFound(id uint) error {
	return errs.E(errs.KindNotFound, "Photo with ID %d not found", id)
}
