package bootstrap

import (
	"context"
	"strings"

	"github.com/Vansh1811/INBoxit-sub000/adapter/in/http"
	"github.com/Vansh1811/INBoxit-sub000/config"
	"github.com/Vansh1811/INBoxit-sub000/infra/middleware"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not configured, every authenticated request will be rejected")
	}

	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := NewApp(cfg, deps)
	return app, cleanup, nil
}

// NewApp builds the fiber app and its routes over already constructed dependencies.
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json for request and response bodies
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 1 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := allowOrigins != "" && allowOrigins != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	http.NewHealthHandlerWithDeps(deps.DB, deps.Redis, deps.Mongo).Register(app)

	handlerCfg := http.ScanHandlerConfig{Latency: deps.Latency}
	if deps.MemoryCache != nil {
		handlerCfg.Stats = deps.MemoryCache
	}
	if deps.ServiceStore != nil {
		handlerCfg.Store = deps.ServiceStore
	}

	api := app.Group("/api/v1", middleware.JWTAuth(cfg.JWTSecret))
	http.NewScanHandler(deps.ScanService, handlerCfg).Register(api)

	return app
}
