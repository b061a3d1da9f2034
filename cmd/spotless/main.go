package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazelwick/spotless/internal/backup"
	"github.com/hazelwick/spotless/internal/database"
	"github.com/hazelwick/spotless/internal/email"
	"github.com/hazelwick/spotless/internal/logging"
	"github.com/hazelwick/spotless/internal/push"
	"github.com/hazelwick/spotless/internal/server"
)

const hygieneInterval = time.Hour

func main() {
	logger := logging.Setup(os.Getenv("SPOTLESS_LOG_LEVEL"))

	port := envOr("SPOTLESS_PORT", "8080")
	dbPath := envOr("SPOTLESS_DB_PATH", "spotless.db")
	baseURL := envOr("SPOTLESS_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		envOr("POSTMARK_FROM_EMAIL", "noreply@spotless.app"),
		baseURL,
		logger,
	)

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	})

	srv := server.New(db, emailClient, pushSvc, logger)

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("BACKUP_S3_ENDPOINT"),
			Bucket:    os.Getenv("BACKUP_S3_BUCKET"),
			Region:    envOr("BACKUP_S3_REGION", "auto"),
			AccessKey: os.Getenv("BACKUP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BACKUP_S3_SECRET_KEY"),
		},
		DBPath:    dbPath,
		Interval:  envDuration("BACKUP_INTERVAL", 24*time.Hour, logger),
		Retention: envDuration("BACKUP_RETENTION", 30*24*time.Hour, logger),
	}, db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backups.Start(ctx)
	defer backups.Stop()

	go func() {
		ticker := time.NewTicker(hygieneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RunHygiene()
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
