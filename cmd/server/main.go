package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shehryarbajwa/browser-agent/internal/api"
	"github.com/shehryarbajwa/browser-agent/internal/audit"
	"github.com/shehryarbajwa/browser-agent/internal/config"
	"github.com/shehryarbajwa/browser-agent/internal/executor"
	"github.com/shehryarbajwa/browser-agent/internal/proxy"
	"github.com/shehryarbajwa/browser-agent/internal/ratelimit"
	"github.com/shehryarbajwa/browser-agent/internal/registry"
	"github.com/shehryarbajwa/browser-agent/internal/sweep"
	"github.com/shehryarbajwa/browser-agent/internal/windows"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	settings, err := config.Load(os.Getenv("BROWSER_AGENT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if err := settings.EnsureDataRoot(); err != nil {
		log.Fatalf("Failed to prepare data root: %v", err)
	}

	// Mirror the operational log into the dated file under the data root
	logPath := filepath.Join(settings.DataRoot, "logs",
		fmt.Sprintf("browser-agent-%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Failed to open log file %s: %v", logPath, err)
	} else {
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	log.Println("Starting Browser Agent...")

	store, err := audit.NewStore(settings.DataRoot)
	if err != nil {
		log.Fatalf("Failed to create audit store: %v", err)
	}
	log.Println("✓ Audit store initialized")

	reg := registry.New()
	log.Println("✓ Session registry initialized")

	engine := executor.New(settings.EngineEndpoint, settings.DataRoot)
	defer func() {
		if err := engine.Shutdown(); err != nil {
			log.Printf("Executor shutdown: %v", err)
		}
	}()
	log.Printf("✓ Automation executor bound to %s", settings.EngineEndpoint)

	host := windows.NoopHost{}

	reaper := sweep.New(sweep.Config{
		Interval:           settings.SweepInterval(),
		MaxSessionDuration: settings.MaxSessionDuration(),
		MaxIdleDuration:    settings.MaxIdleDuration(),
	}, reg, store, engine, host)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go reaper.Run(sweepCtx)
	log.Printf("✓ Timeout sweep running every %s", settings.SweepInterval())

	proxyServer := proxy.NewServer(engine.Endpoint())
	log.Println("✓ CDP debug proxy initialized")

	rateLimiter := ratelimit.NewLimiter(settings.RateLimitPerHour, settings.RateLimitBurst)
	log.Printf("✓ Rate limiter initialized (%d req/hour per client)", settings.RateLimitPerHour)

	handler := api.NewHandler(settings, reg, store, engine, host, nil)
	router := handler.SetupRoutes(proxyServer, rateLimiter)
	log.Println("✓ HTTP routes configured")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", settings.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server gracefully...")

	stopSweep()
	reaper.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
