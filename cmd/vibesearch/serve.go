package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/config"
	logpkg "github.com/kailas-cloud/vibesearch/internal/logger"
	"github.com/kailas-cloud/vibesearch/internal/metrics"
	"github.com/kailas-cloud/vibesearch/internal/repository/feedback"
	"github.com/kailas-cloud/vibesearch/internal/repository/previewcache"
	staterepo "github.com/kailas-cloud/vibesearch/internal/repository/state"
	"github.com/kailas-cloud/vibesearch/internal/repository/waitlist"
	chiTransport "github.com/kailas-cloud/vibesearch/internal/transport/chi"
	"github.com/kailas-cloud/vibesearch/internal/transport/gateway"
	minioTransport "github.com/kailas-cloud/vibesearch/internal/transport/minio"
	feedbackuc "github.com/kailas-cloud/vibesearch/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
	uploaduc "github.com/kailas-cloud/vibesearch/internal/usecase/upload"
	waitlistuc "github.com/kailas-cloud/vibesearch/internal/usecase/waitlist"
	"github.com/kailas-cloud/vibesearch/internal/version"
)

const sweepInterval = time.Minute

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(ctx, cfg, config.GetEnv())
		},
	}
}

func serve(ctx context.Context, cfg config.Config, env string) error {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, logpkg.FileOptions{
		Filename:   cfg.Logging.File.Filename,
		MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAgeDays: cfg.Logging.File.MaxAgeDays,
		Compress:   cfg.Logging.File.Compress,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vibesearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("gateway", cfg.Gateway.BaseURL),
		zap.String("db_driver", cfg.Database.Driver),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register gateway metrics explicitly (no init())
	metrics.RegisterGatewayMetrics()

	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.GatewayTimeout(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create gateway client: %w", err)
	}

	previews := previewcache.New(gw, store, previewcache.Options{
		Fresh:  time.Duration(cfg.PreviewCache.FreshSec) * time.Second,
		Retain: time.Duration(cfg.PreviewCache.RetainSec) * time.Second,
	}, metrics.PreviewCacheTotal, logger)

	sessions := session.NewManager(gw, previews, staterepo.New(store, cfg.StateTTL(), logger), session.Config{
		PageSize:    cfg.Search.RequestPageSize,
		ListPageLen: cfg.Search.ListPageSize,
		MapPageLen:  cfg.Search.MapPageSize,
		Debounce:    cfg.Debounce(),
		IdleTimeout: cfg.SessionIdle(),
		Map: mapview.Options{
			Placeholder: newGeocoder(cfg.Map.PlaceholderGeocoder),
			Fallback:    newGeocoder(cfg.Map.FallbackGeocoder),
			MaxRetries:  cfg.Map.MaxRetries,
			Backoff:     cfg.MapBackoff(),
			Retries:     metrics.MapRetriesTotal,
		},
		Writes: metrics.PersistWritesTotal,
		Logger: logger,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.RunSweeper(sweepCtx, sweepInterval)

	// Pass nil interfaces (not typed nil pointers) when uploads are disabled.
	var (
		objects uploaduc.ObjectStore
		storage healthuc.StorageChecker
	)
	if cfg.Uploads.Enabled() {
		s, err := minioTransport.New(minioTransport.Config{
			Endpoint:  cfg.Uploads.Endpoint,
			AccessKey: cfg.Uploads.AccessKey,
			SecretKey: cfg.Uploads.SecretKey,
			UseSSL:    cfg.Uploads.UseSSL,
			Region:    cfg.Uploads.Region,
			Bucket:    cfg.Uploads.Bucket,
		}, logger)
		if err != nil {
			return fmt.Errorf("create object storage: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure upload bucket: %w", err)
		}
		objects, storage = s, s
		logger.Info("Uploads enabled", zap.String("bucket", cfg.Uploads.Bucket))
	}

	server := chiTransport.NewServer(chiTransport.Deps{
		Sessions: sessions,
		Previews: previews,
		Details:  gw,
		Uploads: uploaduc.New(objects, uploaduc.Options{
			PublicBaseURL: cfg.Uploads.PublicBaseURL,
			Bucket:        cfg.Uploads.Bucket,
			MaxBytes:      cfg.Uploads.MaxBytes,
			Logger:        logger,
		}),
		Waitlist: waitlistuc.New(waitlist.New(store), logger),
		Feedback: feedbackuc.New(feedback.New(store), logger),
		Health:   healthuc.New(store, gw, storage),
		Logger:   logger,
	})
	router := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys: cfg.Auth.APIKeys,
		Logger:  logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	stopSweep()
	sessions.Close(shutdownCtx)

	logger.Info("Server stopped gracefully")
	return nil
}
