package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vetassist/vetchat/internal/api"
	"github.com/vetassist/vetchat/internal/auth"
	"github.com/vetassist/vetchat/internal/config"
	"github.com/vetassist/vetchat/internal/conversation"
	"github.com/vetassist/vetchat/internal/emergency"
	"github.com/vetassist/vetchat/internal/llm"
	"github.com/vetassist/vetchat/internal/ratelimit"
	"github.com/vetassist/vetchat/internal/reaper"
	"github.com/vetassist/vetchat/internal/server"
	"github.com/vetassist/vetchat/internal/store"
	"github.com/vetassist/vetchat/internal/store/memory"
	redisstore "github.com/vetassist/vetchat/internal/store/redis"
	"github.com/vetassist/vetchat/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	emergencyDB := flag.String("emergency-db", "./data/emergencies.db", "path to the emergency log database")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("vetchat", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// Session store: Redis primary with an in-process fallback so the
	// service keeps answering when Redis is down.
	primary := redisstore.New(redisstore.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		SessionTTL: cfg.SessionTTL(),
	})
	defer primary.Close()
	sessions := store.NewResilient(primary, memory.New(), logger)

	emergencies, err := emergency.Open(*emergencyDB)
	if err != nil {
		log.Fatalf("Failed to open emergency log: %v", err)
	}
	defer emergencies.Close()

	var model llm.Client
	if cfg.LLM.APIKey != "" {
		model = llm.NewGemini(cfg.LLM.APIKey, cfg.LLM.Model)
	} else {
		logger.Warn("no LLM API key configured, replies use deterministic fallbacks")
	}

	prompts, err := llm.NewBuilder(cfg.LLM.MaxContextTokens)
	if err != nil {
		log.Fatalf("Failed to initialize prompt builder: %v", err)
	}

	engine := conversation.NewEngine(sessions, model, prompts, emergencies, logger, conversation.Options{
		SessionTTL:   cfg.SessionTTL(),
		HistoryLimit: cfg.Session.HistoryLimit,
		LLMTimeout:   cfg.LLMTimeout(),
	})

	limiter := ratelimit.New(sessions, cfg.RateLimit.Requests, cfg.RateLimitWindow(), logger)
	verifier := auth.NewVerifier(cfg.AuthTokens())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background purge of expired fallback sessions and rate counters.
	go reaper.New(sessions, cfg.ReaperInterval(), logger).Run(ctx)

	srv := server.New(cfg.Server.Port, logger)
	api.NewHandler(engine, limiter, verifier, sessions, logger).Routes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server shutdown complete")
}
