package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nexus/config"
	"nexus/middleware"
	"nexus/notify"
	"nexus/routes"
	"nexus/session"
	"nexus/utils"
	"nexus/worker"
	"nexus/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and notification workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	defer sentry.Flush(2 * time.Second)
	cfg.LogSummary(logger.WithField("component", "CONFIG"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := config.ConnectDB(cfg, logger.WithField("component", "DB"))
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	hub := notify.NewHub()
	publisher, err := startBus(ctx, hub, rdb)
	if err != nil {
		return err
	}

	var store session.Store = session.NewMemoryStore()
	var reads notify.ReadStore = notify.NewMemoryReadStore()
	var limiterStorage fiber.Storage
	if rdb != nil {
		store = session.NewRedisStore(rdb)
		reads = notify.NewRedisReadStore(rdb, cfg.SessionTTL)
		limiterStorage = middleware.NewRedisStorage(rdb)
	}

	sessions := session.NewRegistry(store, reads, cfg.SessionTTL, logger.WithField("component", "SESSIONS"))
	notificationWorker := worker.NewNotificationWorker(
		notify.NewCollector(db),
		hub,
		cfg.NotificationPollInterval,
		logger.WithField("component", "NOTIFICATION_WORKER"),
	)
	sessions.OnOpen(notificationWorker.Run)

	files, err := newFileStore(ctx)
	if err != nil {
		return err
	}

	var extractor utils.StoryExtractor
	if cfg.Gemini.APIKey != "" {
		gemini, err := utils.NewGeminiExtractor(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to create story extractor: %w", err)
		}
		extractor = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, story extraction is disabled")
	}

	app := routes.NewApp(&routes.Dependencies{
		Config:         cfg,
		DB:             db,
		Engine:         workflow.NewEngine(db, publisher, logger.WithField("component", "WORKFLOW")),
		Sessions:       sessions,
		Tokens:         utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Files:          files,
		Extractor:      extractor,
		LimiterStorage: limiterStorage,
		Logger:         logger,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")
		cancel()
		sessions.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// startBus picks where workflow notices are published and, for external
// brokers, starts the relay that feeds them back into the local hub.
func startBus(ctx context.Context, hub *notify.Hub, rdb *redis.Client) (notify.Publisher, error) {
	log := logger.WithField("component", "BUS")

	switch cfg.EventBus {
	case "redis":
		bus := notify.NewRedisBus(rdb, hub, log)
		go worker.NewBusWorker(bus, log).Start(ctx)
		return bus, nil
	case "amqp":
		bus, err := notify.DialAMQP(cfg.AMQPURL, hub, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to amqp: %w", err)
		}
		go func() {
			<-ctx.Done()
			if err := bus.Close(); err != nil {
				log.WithError(err).Warn("Failed to close amqp connection")
			}
		}()
		go worker.NewBusWorker(bus, log).Start(ctx)
		return bus, nil
	default:
		log.WithFields(logrus.Fields{"bus": cfg.EventBus}).Info("Notices stay in this process")
		return hub, nil
	}
}

func newFileStore(ctx context.Context) (utils.FileStore, error) {
	if cfg.EvidenceBackend == "minio" {
		store, err := utils.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to create object store: %w", err)
		}
		return store, nil
	}
	if cfg.Cloudinary.CloudName == "" {
		logger.Warn("CLOUDINARY_CLOUD_NAME not set, evidence uploads will fail")
	}
	return utils.NewCloudinaryUploader(cfg.Cloudinary), nil
}
