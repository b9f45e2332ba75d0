package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mygallery/dto"
	"mygallery/mailer"
)

// POST /api/contact
func (h *handler) contact(c *fiber.Ctx) error {
	if h.mailer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Contact form is not available"})
	}

	req := new(dto.ContactRequest)
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Failed to parse request body")
	}
	if err := dto.Validate(req); err != nil {
		return h.respondError(c, err)
	}

	if err := h.mailer.SendContact(c.UserContext(), req.Email, req.Message); err != nil {
		if errors.Is(err, mailer.ErrDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Contact form is not available"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}
	return c.JSON(fiber.Map{"message": "Message sent"})
}
