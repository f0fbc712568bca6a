package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/saga-engine/internal/config"
	"github.com/jwebster45206/saga-engine/internal/engine"
	"github.com/jwebster45206/saga-engine/internal/handlers"
	"github.com/jwebster45206/saga-engine/internal/logger"
	"github.com/jwebster45206/saga-engine/internal/middleware"
	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Saga Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "gemini":
		llmService = services.NewGeminiService(cfg.ModelName, log)
		log.Info("Using Gemini LLM provider")
	case "anthropic":
		llmService = services.NewAnthropicService(cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"gemini", "anthropic"})
		os.Exit(1)
	}

	pool := services.NewKeyPool(cfg.APIKeys, cfg.DefaultAPIKey)
	if pool.Len() == 0 {
		log.Error("No API keys configured. Set API_KEYS or DEFAULT_API_KEY.")
		os.Exit(1)
	}
	executor := services.NewExecutor(llmService, pool, log)

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(store, executor, log, engine.Config{
		ModelName:        cfg.ModelName,
		BackendModelName: cfg.BackendModelName,
		AutoPinMemories:  cfg.AutoPinMemories,
	})

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	turnHandler := handlers.NewTurnHandler(eng, log)
	mux.Handle("/v1/turns", turnHandler)

	saveHandler := handlers.NewSaveHandler(store, log)
	mux.Handle("/v1/saves", saveHandler)
	mux.Handle("/v1/saves/", saveHandler)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Stop accepting turns and wait for background summarization to cancel
	eng.Close()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
