package routes

import (
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"mygallery/auth"
	"mygallery/dto"
	"mygallery/errs"
)

const invalidLogin = "Invalid email or password"

// GET /Login
func (h *handler) loginPage(c *fiber.Ctx) error {
	if h.gate.IsAdmin(c) {
		return c.Redirect(auth.DashboardPath)
	}
	return c.SendFile(filepath.Join(h.server.PublicDir, "login.html"))
}

// POST /Login
func (h *handler) login(c *fiber.Ctx) error {
	form := new(dto.LoginForm)
	if err := c.BodyParser(form); err != nil {
		return h.loginFailed(c, "Failed to parse request body")
	}
	if err := dto.Validate(form); err != nil {
		return h.loginFailed(c, errs.MessageOf(err))
	}

	ok, err := h.gate.Login(c, form.Email, form.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	if !ok {
		return h.loginFailed(c, invalidLogin)
	}

	if auth.WantsJSON(c) {
		return c.JSON(fiber.Map{"redirect": auth.DashboardPath})
	}
	return c.Redirect(auth.DashboardPath)
}

func (h *handler) loginFailed(c *fiber.Ctx, message string) error {
	if auth.WantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
	}
	return c.Redirect(auth.LoginPath + "?error=" + url.QueryEscape(message))
}

// POST /Logout
func (h *handler) logout(c *fiber.Ctx) error {
	if err := h.gate.Logout(c); err != nil {
		return h.respondError(c, err)
	}
	return c.Redirect(auth.LoginPath)
}

// GET /Admin/Dashboard
func (h *handler) dashboard(c *fiber.Ctx) error {
	return c.SendFile(filepath.Join(h.server.ViewsDir, "admin", "gallery.html"))
}
