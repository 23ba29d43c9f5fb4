package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/tairitsu/internal/auth"
	"github.com/ashita-ai/tairitsu/internal/config"
	"github.com/ashita-ai/tairitsu/internal/mcp"
	"github.com/ashita-ai/tairitsu/internal/screening"
	"github.com/ashita-ai/tairitsu/internal/server"
	"github.com/ashita-ai/tairitsu/internal/storage"
	"github.com/ashita-ai/tairitsu/internal/telemetry"
	"github.com/ashita-ai/tairitsu/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("TAIRITSU_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("tairitsu starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database and apply embedded migrations.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Create the conflict checker (shared by HTTP and MCP handlers).
	checker := screening.NewChecker(db, db, db, logger, cfg.MatchThreshold)

	// Create MCP server.
	mcpSrv := mcp.New(db, checker, cfg.MatchLimit, logger, version)

	// Create HTTP server (MCP mounted at /mcp).
	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		Checker:             checker,
		Logger:              logger,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Seed admin user.
	if err := srv.Handlers().SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminAPIKey); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Audit retention sweep (disabled when retention is 0 = keep forever).
	if cfg.AuditRetention > 0 {
		g.Go(func() error {
			auditRetentionLoop(gctx, db, logger, cfg.AuditRetention, cfg.AuditSweepInterval)
			return nil
		})
	}

	// Wait for shutdown signal or a failed goroutine, then stop the server.
	g.Go(func() error {
		<-gctx.Done()

		slog.Info("tairitsu shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("tairitsu stopped")
	return nil
}

// auditRetentionLoop periodically purges audit events older than the
// configured retention window.
func auditRetentionLoop(ctx context.Context, db *storage.DB, logger *slog.Logger, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			purged, err := db.PurgeAuditEvents(ctx, cutoff)
			if err != nil {
				logger.Warn("audit retention sweep failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.Info("audit retention sweep", "purged", purged, "cutoff", cutoff)
			}
		}
	}
}
