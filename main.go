package main

import (
	"os"
	"time"

	"esa-billing-backend/database"
	"esa-billing-backend/middlewares"
	"esa-billing-backend/routes"
	"esa-billing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// ---- Database
	database.Connect()
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// ---- Fiscal year check: once at startup, then daily. A missed or
	// failed run is harmless; the transition converges on retry.
	runTransition := func() {
		report, err := database.NewFiscalController(database.DB, time.Now).CheckAndTransition()
		if err != nil {
			log.Error().Err(err).Msg("fiscal year check failed")
			return
		}
		switch {
		case report.Initialized:
			log.Info().Str("fy", report.CurrentLabel).Msg("fiscal year marker initialized")
		case report.Transitioned:
			log.Info().Str("fy", report.CurrentLabel).
				Interface("archived_invoices", report.ArchivedInvoices).
				Interface("archived_payments", report.ArchivedPayments).
				Msg("fiscal year transition completed")
		}
	}
	runTransition()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("5 0 * * *", runTransition); err != nil {
		log.Fatal().Err(err).Msg("could not schedule fiscal year check")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ---- Demo data (opt-in)
	if utils.EnvBool("SEED_DEMO", false) {
		if err := database.SeedDemo(time.Now()); err != nil {
			log.Error().Err(err).Msg("demo seed failed")
		}
	}

	// ---- Limits (configurable via env)
	// Fiber default BodyLimit is 4 * 1024 * 1024 bytes if unset (per docs).
	// We allow overriding with BODY_LIMIT_BYTES or BODY_LIMIT_MB.
	bodyLimitBytes := utils.EnvInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = utils.EnvInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	rlMax := utils.EnvInt("RATE_LIMIT_MAX", 60)                                            // default 60 reqs
	rlWindow := time.Duration(utils.EnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second // default 60s window
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
		// Default KeyGenerator = client IP; default 429 handler is fine.
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("API server starting")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
