package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nats-io/nats.go"

	"github.com/neighborhq/neighbor/cockroach"
	"github.com/neighborhq/neighbor/cockroach/migrator"
	"github.com/neighborhq/neighbor/config"
	neighborminio "github.com/neighborhq/neighbor/minio"
	"github.com/neighborhq/neighbor/presence"
	"github.com/neighborhq/neighbor/pubsub"
	"github.com/neighborhq/neighbor/service"
	"github.com/neighborhq/neighbor/web"
	"github.com/neighborhq/neighbor/webpush"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	errLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	}))
	infoLogger := slog.New(charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.CockroachURL)
	if err != nil {
		return fmt.Errorf("open cockroach connection pool: %w", err)
	}

	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping cockroach: %w", err)
	}

	migrationStart := time.Now()
	infoLogger.Info("starting cockroach migrations")

	if err := migrator.Migrate(ctx, dbPool, cockroach.MigrationsFS); err != nil {
		return fmt.Errorf("migrate cockroach schema: %w", err)
	}

	infoLogger.Info("finished cockroach migrations", "took", time.Since(migrationStart))

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	blobs := neighborminio.New(ctx, minioClient, cfg.MinioPublicURL, cfg.CleanupTimeout)
	go func() {
		for err := range blobs.Errs() {
			errLogger.Error("minio error", "error", err)
		}
	}()

	if err := blobs.CreateReadOnlyBucket(ctx, neighborminio.AttachmentsBucket); err != nil {
		return fmt.Errorf("create minio bucket: %w", err)
	}

	natsConn, err := nats.Connect(cfg.NATSURL, nats.Name("neighbor"))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}

	defer natsConn.Drain()

	broker := pubsub.New(natsConn)
	go func() {
		for err := range broker.Errs() {
			errLogger.Error("pubsub error", "error", err)
		}
	}()

	tracker := presence.NewTracker(presence.Config{
		AwayAfter:    cfg.PresenceAway,
		OfflineAfter: cfg.PresenceOffline,
		Publisher:    broker,
	})
	go tracker.Run(ctx)

	push := webpush.New(webpush.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subject:         cfg.VAPIDSubject,
	})
	if !push.Enabled() {
		infoLogger.Info("web push disabled: no VAPID keys configured")
	}

	svc := service.New(&service.Config{
		Store:    cockroach.New(dbPool),
		Broker:   broker,
		Blobs:    blobs,
		Push:     push,
		Presence: tracker,
		Logger:   errLogger,

		AppBaseURL:        cfg.AppBaseURL,
		BaseCtx:           context.Background(),
		BackgroundTimeout: cfg.BackgroundTimeout,
	})
	go func() {
		for err := range svc.Errs() {
			errLogger.Error("service error", "error", err)
		}
	}()

	handler := &web.Handler{
		Service: svc,
		Logger:  errLogger,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	infoLogger.Info("starting neighbor server", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start neighbor server: %w", err)
	}

	return svc.Close()
}
