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
)

func (g *Gallery) ListCategories(ctx context.Context) ([]dto.CategoryView, error) {
	categories, err := g.store.ListCategories(ctx)
	if err != nil {
		return nil, internal(err, "Failed to get categories")
	}
	return dto.ToCategoryViews(categories), nil
}

func (g *Gallery) GetCategory(ctx context.Context, id uint) (dto.CategoryView, error) {
	category, err := g.store.GetCategory(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return dto.CategoryView{}, categoryNotFound(id)
		}
		return dto.CategoryView{}, internal(err, "Failed to get category")
	}
	return dto.ToCategoryView(*category), nil
}

func (g *Gallery) CreateCategory(ctx context.Context, name string) (dto.CategoryView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dto.CategoryView{}, errs.E(errs.KindValidation, "name is required")
	}

	category := &models.Category{Name: name}
	if err := g.store.CreateCategory(ctx, category); err != nil {
		return dto.CategoryView{}, internal(err, "Failed to create category")
	}

	view := dto.ToCategoryView(*category)
	g.log.Info("category created", zap.Uint("id", view.ID), zap.String("name", view.Name))
	g.publish(hub.EventCategoryCreated, view)
	return view, nil
}

// DeleteCategory refuses while any photo references the category. The check
// and the delete share one transaction.
func (g *Gallery) DeleteCategory(ctx context.Context, id uint) error {
	var deleted models.Category
	err := g.store.Transaction(ctx, func(tx *db.Store) error {
		category, err := tx.GetCategory(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return categoryNotFound(id)
			}
			return internal(err, "Failed to get category")
		}

		inUse, err := tx.CountPhotosInCategory(ctx, id)
		if err != nil {
			return internal(err, "Failed to check category usage")
		}
		if inUse > 0 {
			return errs.E(errs.KindConflict, "Cannot delete category because it is being used by one or more photos")
		}

		if err := tx.DeleteCategory(ctx, id); err != nil {
			return internal(err, "Failed to delete category")
		}
		deleted = *category
		return nil
	})
	if err != nil {
		return err
	}

	g.log.Info("category deleted", zap.Uint("id", id))
	g.publish(hub.EventCategoryDeleted, dto.ToCategoryView(deleted))
	return nil
}

func categoryNotFound(id uint) error {
	return errs.E(errs.KindNotFound, "Category with ID %d not found", id)
}
