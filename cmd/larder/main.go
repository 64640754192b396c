package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"larder/internal/backup"
	"larder/internal/database"
	"larder/internal/email"
	"larder/internal/logging"
	"larder/internal/server"
)

func main() {
	logger := logging.Setup(envOr("LARDER_LOG_LEVEL", "info"), envOr("LARDER_LOG_FORMAT", "text"))

	port := envOr("LARDER_PORT", "8080")
	dbPath := envOr("LARDER_DB_PATH", "larder.db")
	baseURL := envOr("LARDER_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ttlDays, err := strconv.Atoi(envOr("LARDER_SESSION_TTL_DAYS", "30"))
	if err != nil || ttlDays <= 0 {
		ttlDays = 30
	}

	emailClient := email.NewClient(
		os.Getenv("LARDER_POSTMARK_TOKEN"),
		envOr("LARDER_FROM_EMAIL", "noreply@larder.app"),
		baseURL,
	)

	backupInterval := 24 * time.Hour
	if v := os.Getenv("LARDER_BACKUP_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			backupInterval = time.Duration(hours) * time.Hour
		}
	}

	cfg := server.Config{
		SessionTTL: time.Duration(ttlDays) * 24 * time.Hour,
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("LARDER_S3_ENDPOINT"),
				Bucket:    os.Getenv("LARDER_S3_BUCKET"),
				Region:    envOr("LARDER_S3_REGION", "us-east-1"),
				AccessKey: os.Getenv("LARDER_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("LARDER_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("LARDER_BACKUP_PASSPHRASE"),
			Interval:   backupInterval,
		},
		VAPID: server.VAPIDConfig{
			PublicKey:  os.Getenv("LARDER_VAPID_PUBLIC_KEY"),
			PrivateKey: os.Getenv("LARDER_VAPID_PRIVATE_KEY"),
			Subscriber: envOr("LARDER_VAPID_SUBSCRIBER", "mailto:noreply@larder.app"),
		},
	}

	srv := server.New(db, cfg, emailClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// The rate limiter only grows; prune stale windows periodically.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("larder listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
