package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/api/http/handlers"
	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/observability"
	"github.com/spec-kit/plantpal-service/internal/upload"
)

// AppOptions configures the fiber application.
type AppOptions struct {
	Name        string
	BodyLimit   int
	CORSOrigins string
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewApp builds a fiber app whose error responses use the API envelope.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(opts.Logger, opts.Metrics),
	})

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, auth.HeaderAuthToken, HeaderRequestID}, ","),
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: HeaderRequestID,
	}))
	return app
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Garden         *handlers.GardenHandler
	Diagnosis      *handlers.DiagnosisHandler
	Chat           *handlers.ChatHandler
	Profile        *handlers.ProfileHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
	Upload         upload.Config
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authed := cfg.AuthMiddleware.Handle
	image := cfg.Upload
	image.Required = true
	withImage := upload.Single(image)

	// provider-backed routes are throttled per user
	metered := []fiber.Handler{authed}
	if cfg.RateLimiter != nil {
		metered = append(metered, cfg.RateLimiter.Handle)
	}
	chain := func(handlers ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, metered...), handlers...)
	}

	api := app.Group("/api")

	api.Post("/auth/register", cfg.Auth.Register)
	api.Post("/auth/login", cfg.Auth.Login)
	api.Get("/auth", authed, cfg.Auth.Me)

	api.Post("/identify", chain(withImage, cfg.Garden.Identify)...)
	api.Post("/health", chain(withImage, cfg.Diagnosis.Assess)...)
	api.Post("/chat", chain(cfg.Chat.Reply)...)

	api.Get("/garden", authed, cfg.Garden.List)
	api.Delete("/garden/:id", authed, cfg.Garden.Remove)

	api.Put("/profile", authed, cfg.Profile.Update)
	api.Post("/profile/picture", authed, withImage, cfg.Profile.UploadPicture)

	admin := []fiber.Handler{authed, auth.RequireAdmin()}
	api.Get("/admin/users", append(admin, cfg.Admin.Users)...)
	api.Get("/admin/stats", append(admin, cfg.Admin.Stats)...)
}
