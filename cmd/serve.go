package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"principal-sync/core/logger"
	"principal-sync/core/middleware/auth"
	"principal-sync/core/middleware/requestid"
	"principal-sync/feature/planapi"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the plan HTTP API",
	Long: `Starts an HTTP server exposing snapshot validation and change planning.
Clients post desired (and optionally current) principal state and get back
integrity results or a change plan without anything being applied.`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Request IDs come first so every later log line can carry one
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.WithRequestID(log, c).Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	})

	// Health check stays public, everything behind it needs the API key
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

	service := planapi.NewService(log)
	handler := planapi.NewHandler(service)
	handler.RegisterRoutes(app)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}
