// Package auth gates the admin pages behind a cookie session.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"mygallery/config"
)

const (
	LoginPath     = "/Login"
	DashboardPath = "/Admin/Dashboard"

	adminKey = "is_admin"
	emailKey = "email"
)

// Credentials is the single admin account. An incomplete pair never matches.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) Configured() bool {
	return c.Email != "" && c.Password != ""
}

// Match compares both fields exactly.
func (c Credentials) Match(email, password string) bool {
	if !c.Configured() {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(c.Email), []byte(email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return emailOK && passwordOK
}

type Gate struct {
	creds    Credentials
	sessions *session.Store
	log      *zap.Logger
}

func NewGate(creds Credentials, cfg config.SessionConfig, log *zap.Logger) *Gate {
	log = log.Named("auth")
	if !creds.Configured() {
		log.Warn("admin credentials are not configured, admin login is disabled")
	}
	return &Gate{
		creds: creds,
		sessions: session.New(session.Config{
			Expiration:     cfg.Expiration,
			KeyLookup:      "cookie:" + cfg.CookieName,
			CookieSecure:   cfg.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
		log: log,
	}
}

// Login starts an admin session when the credentials match. A false result
// with a nil error means they did not.
func (g *Gate) Login(c *fiber.Ctx, email, password string) (bool, error) {
	if !g.creds.Match(email, password) {
		g.log.Warn("admin login rejected", zap.String("email", email), zap.String("ip", c.IP()))
		return false, nil
	}

	sess, err := g.sessions.Get(c)
	if err != nil {
		return false, err
	}
	if err := sess.Regenerate(); err != nil {
		return false, err
	}
	sess.Set(adminKey, true)
	sess.Set(emailKey, email)
	if err := sess.Save(); err != nil {
		return false, err
	}
	g.log.Info("admin logged in", zap.String("email", email), zap.String("ip", c.IP()))
	return true, nil
}

func (g *Gate) Logout(c *fiber.Ctx) error {
	sess, err := g.sessions.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

func (g *Gate) IsAdmin(c *fiber.Ctx) bool {
	sess, err := g.sessions.Get(c)
	if err != nil {
		return false
	}
	admin, _ := sess.Get(adminKey).(bool)
	return admin
}

// RequireAdmin sends anonymous browsers to the login page and answers
// 401 to JSON clients.
func (g *Gate) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.IsAdmin(c) {
			return c.Next()
		}
		if WantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		return c.Redirect(LoginPath)
	}
}

// WantsJSON reports whether the client prefers JSON over an HTML redirect.
func WantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
