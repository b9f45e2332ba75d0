package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"mygallery/auth"
	"mygallery/config"
	"mygallery/db"
	"mygallery/mailer"
	"mygallery/metrics"
	"mygallery/services"
)

// Deps is everything the HTTP surface dispatches to. Mailer, Events and
// Metrics are optional.
type Deps struct {
	Gallery *services.Gallery
	Gate    *auth.Gate
	Store   *db.Store
	Mailer  mailer.Sender
	Events  http.Handler
	Metrics *metrics.Metrics
	Server  config.ServerConfig
	Log     *zap.Logger
}

type handler struct {
	gallery *services.Gallery
	gate    *auth.Gate
	store   *db.Store
	mailer  mailer.Sender
	server  config.ServerConfig
	log     *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	h := &handler{
		gallery: d.Gallery,
		gate:    d.Gate,
		store:   d.Store,
		mailer:  d.Mailer,
		server:  d.Server,
		log:     d.Log.Named("routes"),
	}

	if d.Events != nil {
		app.Get("/ws", adaptor.HTTPHandler(d.Events))
	}
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Get("/healthz", h.healthz)

	api := app.Group("/api")

	categories := api.Group("/categories")
	categories.Get("/", h.listCategories)
	categories.Post("/", h.createCategory)
	categories.Get("/:id", h.getCategory)
	categories.Delete("/:id", h.deleteCategory)

	photos := api.Group("/photos")
	photos.Get("/", h.listPhotos)
	photos.Post("/", h.createPhoto)
	photos.Get("/:id", h.getPhoto)
	photos.Put("/:id", h.updatePhoto)
	photos.Delete("/:id", h.deletePhoto)

	api.Post("/contact", h.contact)

	app.Get(auth.LoginPath, h.loginPage)
	app.Post(auth.LoginPath, h.login)
	app.Post("/Logout", h.logout)
	app.Get(auth.DashboardPath, h.gate.RequireAdmin(), h.dashboard)

	app.Static("/", d.Server.PublicDir)
}

func (h *handler) healthz(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		h.log.Error("health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
