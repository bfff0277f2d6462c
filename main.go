package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/config"
	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/internal/bootstrap"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Load .env file if exists (for local development)
	envErr := godotenv.Load()

	mode := flag.String("mode", "api", "Run mode: api, scan, seed")
	userID := flag.String("user", "", "User id to scan or seed (scan, seed modes)")
	query := flag.String("query", "", "Mailbox search query (scan mode)")
	maxMessages := flag.Int("max", 0, "Maximum messages to list, 0 uses the default (scan mode)")
	force := flag.Bool("force", false, "Bypass the cached result (scan mode)")
	email := flag.String("email", "", "Mailbox address (seed mode)")
	expiry := flag.String("expiry", "", "Access token expiry, RFC 3339; empty forces a refresh on first use (seed mode)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "inboxit-scanner",
		Pretty:  cfg.IsDevelopment(),
		// Scan mode prints JSON on stdout.
		Output: os.Stderr,
	})
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	switch *mode {
	case "api":
		runAPI(cfg)
	case "scan":
		runScan(cfg, *userID, domain.ScanOptions{
			Query:        *query,
			MaxMessages:  *maxMessages,
			ForceRefresh: *force,
		})
	case "seed":
		runSeed(cfg, *userID, *email, *expiry)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down: %v", err)
		} else {
			logger.Info("API server shut down gracefully")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("Server stopped: %v", err)
	}
}

func runScan(cfg *config.Config, userID string, opts domain.ScanOptions) {
	if userID == "" {
		logger.Fatal("-user is required in scan mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner, cleanup, err := bootstrap.NewScanner(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize scanner: %v", err)
	}
	defer cleanup()

	result, err := scanner.Run(ctx, userID, opts)
	if err != nil {
		logger.Error("Scan failed: %v", err)
		cleanup()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Services); err != nil {
		logger.Error("Failed to write result: %v", err)
		cleanup()
		os.Exit(1)
	}
}

// runSeed stores a user whose tokens are read from SEED_ACCESS_TOKEN and
// SEED_REFRESH_TOKEN, keeping them out of the process list.
func runSeed(cfg *config.Config, userID, email, expiry string) {
	cred := domain.Credential{
		AccessToken:  os.Getenv("SEED_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("SEED_REFRESH_TOKEN"),
		// An expiry in the past makes the first scan refresh the token.
		Expiry: time.Now().Add(-time.Minute),
	}
	if expiry != "" {
		t, err := time.Parse(time.RFC3339, expiry)
		if err != nil {
			logger.Fatal("Invalid -expiry: %v", err)
		}
		cred.Expiry = t
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner, cleanup, err := bootstrap.NewScanner(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize scanner: %v", err)
	}
	defer cleanup()

	if err := scanner.Seed(ctx, &domain.User{ID: userID, Email: email, Credential: cred}); err != nil {
		logger.Error("Seed failed: %v", err)
		cleanup()
		os.Exit(1)
	}
}
