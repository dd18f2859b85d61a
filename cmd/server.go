package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/orgpost/orgpost/pkg/errx"
	"github.com/orgpost/orgpost/pkg/logx"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	logx.Info("🚀 Starting Orgpost API Server...")

	container := NewContainer()
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:               "Orgpost API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             container.Config.Server.BodyLimit,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  container.Config.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))

	container.MailboxHandlers.RegisterRoutes(app)
	logx.Info("✓ Mailbox routes registered")

	container.NewsletterHandlers.RegisterRoutes(app)
	logx.Info("✓ Newsletter routes registered")

	app.Use(notFoundHandler)

	container.StartBackgroundServices()

	startServer(app, container.Config.Server.Port)
}

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "orgpost-api",
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if container.Redis != nil {
			if err := container.Redis.Ping(c.Context()).Err(); err != nil {
				health["queue"] = "unhealthy"
				health["queue_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["queue"] = "healthy"
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP responses.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"type":       "INTERNAL",
		"request_id": c.Get("X-Request-ID"),
	})
}

func startServer(app *fiber.App, port string) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v, shutting down gracefully...", sig)

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited")
}
