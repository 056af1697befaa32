package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"garage-backend/controllers"
	"garage-backend/database"
	"garage-backend/middlewares"
	"garage-backend/routes"
	"garage-backend/syncer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ---- Local queue database (always available, even without connectivity)
	queuePath := os.Getenv("QUEUE_DB_PATH")
	if queuePath == "" {
		queuePath = "garage-queue.db"
	}
	if err := database.ConnectQueue(queuePath); err != nil {
		log.Fatal().Err(err).Msg("open local queue database")
	}
	queue, err := syncer.NewQueueStore(database.QueueDB)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate local queue database")
	}

	// ---- Remote database. Startup tolerates the remote being down: the
	// engine simply begins offline with whatever is already queued.
	online := true
	if err := database.Connect(); err != nil {
		log.Warn().Err(err).Msg("remote database unreachable, starting offline")
		online = false
	} else if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrate remote database")
	}

	// ---- Sync engine
	tracker := syncer.NewTracker(online)
	applier := syncer.NewApplier(database.NewRemoteInvoiceStore(database.DB), log.Logger)
	cache := syncer.NewInvoiceCache()
	engine := syncer.NewOrchestrator(queue, tracker, applier, cache, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start sync engine")
	}
	defer engine.Stop()

	controllers.UseEngine(engine)

	// ---- Reconnect probe: while offline, ping the remote periodically and
	// flip the tracker back online on success. Going offline is handled by
	// the engine itself when a remote call fails in transport.
	probeEvery := time.Duration(envInt("RECONNECT_PROBE_SECONDS", 15)) * time.Second
	go func() {
		ticker := time.NewTicker(probeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if tracker.Online() {
					continue
				}
				if database.DB == nil {
					if err := database.Connect(); err != nil {
						continue
					}
					if err := database.Migrate(); err != nil {
						log.Error().Err(err).Msg("migrate remote database")
						continue
					}
					applier.SetRemote(database.NewRemoteInvoiceStore(database.DB))
				}
				if database.Ping() == nil {
					log.Info().Msg("remote reachable again")
					tracker.SetOnline(true)
				}
			}
		}
	}()

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
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
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start, draining the queue on shutdown signals
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("API server starting")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
