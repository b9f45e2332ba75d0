package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mygallery/models"
)

// ErrNotFound is returned by the Get methods when no row matches.
var ErrNotFound = gorm.ErrRecordNotFound

// Store is the persistence layer for categories and photos.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Transaction runs fn against a Store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountPhotosInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Photo{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

// ListPhotos returns photos with their category loaded, optionally only
// those in categoryID.
func (s *Store) ListPhotos(ctx context.Context, categoryID *uint) ([]models.Photo, error) {
	q := s.db.WithContext(ctx).Preload("Category").Order("id")
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var photos []models.Photo
	err := q.Find(&photos).Error
	return photos, err
}

func (s *Store) GetPhoto(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *Store) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	return s.db.WithContext(ctx).Omit("Category").Create(photo).Error
}

// UpdatePhoto writes the image URL and category of photo.
func (s *Store) UpdatePhoto(ctx context.Context, photo *models.Photo) error {
	res := s.db.WithContext(ctx).Model(&models.Photo{ID: photo.ID}).Updates(map[string]any{
		"image_url":   photo.ImageURL,
		"category_id": photo.CategoryID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePhoto(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Photo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
