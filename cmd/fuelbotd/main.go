package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fueltrack/fueltrack-bot/internal/bot"
	"github.com/fueltrack/fueltrack-bot/internal/bot/telegram"
	"github.com/fueltrack/fueltrack-bot/internal/config"
	"github.com/fueltrack/fueltrack-bot/internal/health"
	"github.com/fueltrack/fueltrack-bot/internal/httpserver"
	"github.com/fueltrack/fueltrack-bot/internal/logging"
	"github.com/fueltrack/fueltrack-bot/internal/messages"
	"github.com/fueltrack/fueltrack-bot/internal/refill"
	refillpostgres "github.com/fueltrack/fueltrack-bot/internal/refill/postgres"
	refillsqlite "github.com/fueltrack/fueltrack-bot/internal/refill/sqlite"
	"github.com/fueltrack/fueltrack-bot/internal/stats"
	"github.com/fueltrack/fueltrack-bot/internal/telemetry"
	"github.com/fueltrack/fueltrack-bot/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	const maxLogBytes = int64(100 * 1024 * 1024) // 100MB
	if cfg.LogFile != "" {
		rot, err := logging.NewRotatingWriter(cfg.LogFile, maxLogBytes)
		if err != nil {
			log.Fatalf("init rotating log: %v", err)
		}
		// Mirror to stdout as well for foreground runs
		log.SetOutput(io.MultiWriter(os.Stdout, rot))
		defer rot.Close()
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[fuelbotd] ")
	log.Printf("starting %s", version.FullInfo())

	if cfg.BotToken == "" {
		log.Fatalf("bot token not configured (set FUELTRACK_BOT_TOKEN)")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open refill store: %v", err)
	}
	defer store.Close()
	log.Printf("refill store ready driver=%s", cfg.StorageDriver)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("load message catalog: %v", err)
	}

	installID, err := telemetry.GetOrCreateInstallID(cfg.StatePath)
	if err != nil {
		log.Printf("install id unavailable: %v", err)
	}

	engine := stats.New(store)
	handler := bot.New(store, engine, catalog, log.New(log.Writer(), "[bot] ", log.LstdFlags|log.Lmicroseconds))

	transport, err := telegram.New(cfg.BotToken, handler, catalog, log.New(log.Writer(), "[telegram] ", log.LstdFlags|log.Lmicroseconds), telegram.Options{
		HandleTimeout: cfg.HandleTimeout,
		Debug:         cfg.TelegramDebug,
	})
	if err != nil {
		log.Fatalf("telegram auth failed: %v", err)
	}
	log.Printf("authorized as @%s", transport.Username())

	checker := health.New(health.Config{Store: store})
	liveness := httpserver.New(cfg.HTTPAddress, checker, installID, log.New(log.Writer(), "[http] ", log.LstdFlags|log.Lmicroseconds))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- liveness.Start() }()
	go func() { errCh <- transport.Run(ctx, cfg.PollTimeout) }()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Printf("component failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := liveness.Shutdown(shutdownCtx); err != nil {
		log.Printf("liveness shutdown: %v", err)
	}
}

func openStore(cfg config.BotConfig) (refill.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return refillpostgres.New(cfg.DatabaseURL, refillpostgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
	default:
		return refillsqlite.New(cfg.SQLitePath)
	}
}

func loadCatalog(cfg config.BotConfig) (*messages.Catalog, error) {
	if cfg.CatalogPath != "" {
		return messages.LoadFile(cfg.CatalogPath)
	}
	return messages.Default()
}
