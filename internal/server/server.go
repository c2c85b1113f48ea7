// Package server assembles the Fiber application: middleware, handlers and
// routes. cmd/server and the e2e tests build the same app through NewApp.
package server

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/homepanel/api/internal/auth"
	"github.com/homepanel/api/internal/config"
	"github.com/homepanel/api/internal/handler"
	"github.com/homepanel/api/internal/logging"
	"github.com/homepanel/api/internal/middleware"
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/internal/service"
	ws "github.com/homepanel/api/internal/websocket"
	"github.com/homepanel/api/pkg/response"
)

// Deps carries everything the routes need. Redis and Verifier may be nil.
type Deps struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	Redis    *redis.Client
	Verifier auth.TokenVerifier
	Hub      *ws.Hub

	Cron      *service.CronService
	Backup    *service.BackupService
	Workspace *service.WorkspaceService
	System    *service.SystemService
	Models    *service.ModelService

	// Reported by /health and /api/debug/info
	Services map[string]bool

	// Disables the access log, used by tests
	Quiet bool
}

// NewApp builds the Fiber app with all routes registered
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	validate := validator.New()

	cronHandler := handler.NewCronHandler(d.Cron, d.Backup, validate)
	workspaceHandler := handler.NewWorkspaceHandler(d.Workspace)
	systemHandler := handler.NewSystemHandler(d.System, validate)
	modelHandler := handler.NewModelHandler(d.Models)
	authHandler := handler.NewAuthHandler(d.Verifier, cfg.JWT.Secret)
	debugHandler := handler.NewDebugHandler(model.DebugInfoResponse{
		Env:           cfg.Server.Env,
		WorkspaceRoot: d.Workspace.Root(),
		JobStorePath:  cfg.JobStore.Path,
		Services:      d.Services,
	})

	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		d.Log.Info("Gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware(cfg.Zitadel.AllowedSubjects)
	} else {
		var authMiddleware *middleware.AuthMiddleware
		if d.Verifier != nil && cfg.JWT.Secret != "" {
			authMiddleware = middleware.NewAuthMiddlewareWithFallback(d.Verifier, cfg.JWT.Secret)
		} else if d.Verifier != nil {
			authMiddleware = middleware.NewAuthMiddleware(d.Verifier)
		} else {
			authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
		}
		apiAuthMiddleware = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(d.Redis, d.Log)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    1 * 1024 * 1024,
		// Job ids are arbitrary strings and arrive percent-encoded
		UnescapePath:          true,
		DisableStartupMessage: d.Quiet,
	})

	app.Use(recover.New())
	if !d.Quiet {
		logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
		if logging.IsDebug(cfg.Server.LogLevel) {
			logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		}
		app.Use(logger.New(logger.Config{
			Format: logFormat,
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"services": d.Services,
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	api := app.Group("/api", apiAuthMiddleware)

	api.Get("/auth/session", authHandler.Session)
	api.Get("/debug/info", debugHandler.Info)
	api.Get("/models", modelHandler.List)

	cron := api.Group("/cron")
	cron.Get("/jobs", cronHandler.List)
	cron.Get("/jobs/:jobId", cronHandler.Get)
	cron.Put("/jobs/:jobId/model", rateLimiter.MutateLimit(cfg.RateLimit.MutatePerMin), cronHandler.UpdateModel)
	cron.Post("/backup", rateLimiter.BackupLimit(cfg.RateLimit.BackupPerHour), cronHandler.Backup)

	workspace := api.Group("/workspace")
	workspace.Get("/file", workspaceHandler.File)
	workspace.Get("/list", workspaceHandler.List)

	system := api.Group("/system")
	system.Post("/reboot", rateLimiter.RebootLimit(cfg.RateLimit.RebootPerHour), systemHandler.Reboot)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		d.Hub.HandleConnection(c, c.Params("jobId"))
	}))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeForStatus(code), message, nil)
}
