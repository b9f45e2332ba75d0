package routes

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mygallery/errs"
)

// respondError writes err as {"error": message} with the status of its kind.
func (h *handler) respondError(c *fiber.Ctx, err error) error {
	kind := errs.KindOf(err)
	status := kind.StatusCode()
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": errs.MessageOf(err)})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// idParam reads the unsigned integer :id route parameter. Zero parses and
// simply matches no row.
func idParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// ErrorHandler renders errors that escape the handlers, fiber's own
// included, in the API's error shape.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		var ge *errs.Error
		if errors.As(err, &ge) {
			return c.Status(ge.Kind.StatusCode()).JSON(fiber.Map{"error": errs.MessageOf(err)})
		}
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
