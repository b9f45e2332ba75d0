package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mygallery/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := Open(filepath.Join(t.TempDir(), "data", "gallery.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(gdb)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "gallery.db?_foreign_keys=on&_busy_timeout=5000", DSN("gallery.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", DSN("file:x.db?mode=rwc"))
}

func TestOpenSeedsOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 5)
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
		assert.EqualValues(t, i+1, c.ID)
	}
	assert.Equal(t, []string{"Animals", "Sunsets", "Insects", "Sky", "Randoms"}, names)

	n, err := Seed(store.db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPhotoLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	photo := &models.Photo{ImageURL: "/uploads/a.png", CategoryID: 2}
	require.NoError(t, store.CreatePhoto(ctx, photo))
	require.NotZero(t, photo.ID)

	got, err := store.GetPhoto(ctx, photo.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Sunsets", got.Category.Name)

	n, err := store.CountPhotosInCategory(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got.ImageURL = "/uploads/b.png"
	got.CategoryID = 3
	require.NoError(t, store.UpdatePhoto(ctx, got))

	got, err = store.GetPhoto(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/b.png", got.ImageURL)
	assert.Equal(t, "Insects", got.Category.Name)

	cat := uint(3)
	filtered, err := store.ListPhotos(ctx, &cat)
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	other := uint(1)
	filtered, err = store.ListPhotos(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, filtered)

	require.NoError(t, store.DeletePhoto(ctx, photo.ID))
	_, err = store.GetPhoto(ctx, photo.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(store.DeletePhoto(ctx, photo.ID)))
}

func TestCategoryTransaction(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	category := &models.Category{Name: "Mountains"}
	require.NoError(t, store.CreateCategory(ctx, category))
	assert.EqualValues(t, 6, category.ID)

	exists, err := store.CategoryExists(ctx, category.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.Transaction(ctx, func(tx *Store) error {
		return tx.DeleteCategory(ctx, category.ID)
	})
	require.NoError(t, err)

	exists, err = store.CategoryExists(ctx, category.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, IsNotFound(store.DeleteCategory(ctx, category.ID)))
	require.NoError(t, store.Ping(ctx))
}
