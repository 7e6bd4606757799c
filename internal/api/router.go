package api

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/bmex-dev/leveldensity/internal/api/handlers"
	"github.com/bmex-dev/leveldensity/internal/dashboard"
	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/internal/middleware/ratelimit"
	"github.com/bmex-dev/leveldensity/internal/middleware/security"
	"github.com/bmex-dev/leveldensity/internal/middleware/validation"
	"github.com/bmex-dev/leveldensity/internal/view"
)

type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
	// RequestLog enables fiber's access log middleware.
	RequestLog bool
	RateLimit  ratelimit.Config
}

type Dependencies struct {
	Service  *dashboard.Service
	Sessions *handlers.Sessions
	Renderer *view.Renderer
	// History is nil when lookup history is disabled.
	History handlers.HistoryReader
}

func NewApp(opts Options, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               view.DefaultTitle,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: !opts.Debug,
	})

	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{IsDevelopment: opts.Debug}))

	isotopeHandler := handlers.NewIsotopeHandler(deps.Service, deps.Sessions, deps.Renderer)
	exportHandler := handlers.NewExportHandler(deps.Sessions)
	wsHandler := handlers.NewWebSocketHandler(deps.Service, deps.Sessions, deps.Renderer)

	app.Get("/metrics", metrics.MetricsHandler())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(view.Static()),
		MaxAge: 3600,
	}))

	limiter := ratelimit.New(opts.RateLimit).Middleware()

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	api.Get("/isotopes", limiter, validation.IsotopeParams(false), isotopeHandler.Resolve)
	api.Get("/export", limiter, exportHandler.Download)

	if deps.History != nil {
		historyHandler := handlers.NewHistoryHandler(deps.History)
		api.Get("/history", historyHandler.Recent)
	}

	app.Get("/ws", wsHandler.Upgrade, websocket.New(wsHandler.HandleConnection))

	app.Get("/", limiter, validation.IsotopeParams(true), isotopeHandler.Page)
	// legacy route with the parameters in the path, e.g. /A=56&Z=26
	app.Get("/:params", limiter, validation.IsotopeParams(true), isotopeHandler.Page)

	return app
}
