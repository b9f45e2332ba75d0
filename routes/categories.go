package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"mygallery/dto"
)

// GET /api/categories
func (h *handler) listCategories(c *fiber.Ctx) error {
	categories, err := h.gallery.ListCategories(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(categories)
}

// GET /api/categories/:id
func (h *handler) getCategory(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid category ID")
	}
	category, err := h.gallery.GetCategory(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(category)
}

// POST /api/categories
func (h *handler) createCategory(c *fiber.Ctx) error {
	req := new(dto.CreateCategoryRequest)
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Failed to parse request body")
	}
	if err := dto.Validate(req); err != nil {
		return h.respondError(c, err)
	}

	category, err := h.gallery.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Location(fmt.Sprintf("/api/categories/%d", category.ID))
	return c.Status(fiber.StatusCreated).JSON(category)
}

// DELETE /api/categories/:id
func (h *handler) deleteCategory(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid category ID")
	}
	if err := h.gallery.DeleteCategory(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
