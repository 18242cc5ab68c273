package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/flashdeck/internal/api"
	"github.com/vytor/flashdeck/internal/config"
	"github.com/vytor/flashdeck/internal/db"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/generator"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/memory"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/services"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.ParseFormat(cfg.LogFormat)),
		logger.WithColors(logger.ParseFormat(cfg.LogFormat) == logger.TextFormat),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("FlashDeck Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("storage_backend=%s", cfg.StorageBackend)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s, log_format=%s", cfg.LogLevel, cfg.LogFormat)
	log.Debug("mastery_interval_days=%d, mastery_min_ease=%d", cfg.MasteryInterval, cfg.MasteryMinEase)
	log.Debug("review_max_retries=%d, due_limit_max=%d", cfg.ReviewMaxRetries, cfg.DueLimitMax)
	log.Debug("llm_model=%s, llm_configured=%t", cfg.LLMModel, cfg.LLMAPIKey != "")

	var (
		store repository.Store
		ready func(context.Context) error
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on exit")
		store = memory.NewStore()
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			log.Error("failed to open database: %v", err)
			os.Exit(1)
		}
		defer func() {
			log.Debug("closing database connection")
			database.Close()
		}()
		store = sqlite.NewStore(database.DB)
		ready = database.PingContext
	}

	if cfg.LLMAPIKey == "" {
		log.Warn("LLM_API_KEY not set; card generation will be unavailable")
	}
	gen := generator.New(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, time.Duration(cfg.LLMTimeoutSeconds)*time.Second)
	maxUpload := int64(cfg.MaxUploadMB) << 20
	rule := flashcard.MasteryRule{IntervalDays: cfg.MasteryInterval, MinEase: cfg.MasteryMinEase}

	srv := &api.Server{
		DeckService:       services.NewDeckService(store.Decks, time.Now),
		CardService:       services.NewCardService(store.Decks, store.Cards, time.Now),
		ReviewService:     services.NewReviewService(store, cfg.ReviewMaxRetries),
		StatsService:      services.NewStatsService(store.Decks, store.Cards, rule, time.Now),
		GenerationService: services.NewGenerationService(store.Decks, store.Cards, gen, maxUpload, time.Now),
		Ready:             ready,
		DueLimitMax:       cfg.DueLimitMax,
		MaxUploadBytes:    maxUpload,
		CORSOrigins:       cfg.CORSAllowedOrigins,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      time.Duration(cfg.LLMTimeoutSeconds)*time.Second + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("FlashDeck Server Stopped")
	log.Info("===========================================")
}
