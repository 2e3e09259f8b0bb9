package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Application
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/usecase"

	// Domain
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/service"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"

	// Infrastructure
	natsInfra "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/messaging/nats"
	gallerymetrics "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/metrics"
	wsInfra "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/notification/websocket"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/observability/cloudwatch"
	dynamostore "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/persistence/dynamodb"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/persistence/postgres"
	redisstore "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/persistence/redis"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/persistence/sqlite"
	s3storage "github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http/handler"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/interfaces/http/middleware"

	// Shared
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/config"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting img-uploader", "storage_backend", cfg.Storage.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// CloudWatch Logs (опционально)
	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err = cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			BufferSize:      cfg.CloudWatch.BufferSize,
			FlushInterval:   cfg.CloudWatch.FlushInterval,
			AutoCreate:      true,
		})
		if err != nil {
			log.Warn("CloudWatch Logs disabled", "error", err.Error())
		} else {
			log.SetLogPublisher(logsPublisher)
			log.Info("CloudWatch Logs enabled", "log_group", cfg.CloudWatch.LogGroupName)
		}
	}

	// 3. Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := gallerymetrics.New(registry)

	// 4. Durable snapshot slot
	snapshotStore, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		log.Error("Failed to open snapshot store", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	log.Info("Snapshot store ready", "backend", cfg.Storage.Backend)

	// 5. Events (опционально)
	var eventPublisher port.EventPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err := natsInfra.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("NATS events disabled", "error", err.Error())
		} else {
			eventPublisher = natsPublisher
			log.Info("NATS events enabled", "url", cfg.NATS.URL)
		}
	}

	// 6. WebSocket Hub
	hub := wsInfra.NewHub(log)
	go hub.Run(ctx)
	log.Info("WebSocket hub started")

	// 7. Dependency Injection - Domain Layer
	allowed := make([]valueobject.MimeType, 0, len(cfg.Gallery.AllowedMimes))
	for _, raw := range cfg.Gallery.AllowedMimes {
		allowed = append(allowed, valueobject.ParseMimeType(raw))
	}
	admissionPolicy := service.NewAdmissionPolicy(service.AdmissionConfig{
		MaxImages:     cfg.Gallery.MaxImages,
		MaxImageBytes: cfg.Gallery.MaxImageBytes,
		AllowedMimes:  allowed,
	})
	rotator := service.NewRotator(cfg.Gallery.JPEGQuality, cfg.Gallery.MaxPixels)

	// 8. Dependency Injection - Application Layer
	persistence := usecase.NewSnapshotPersistence(snapshotStore, usecase.SnapshotPersistenceConfig{
		Key:             cfg.Gallery.SnapshotKey,
		PersistPayloads: cfg.Gallery.PersistPayloads,
		Timeout:         cfg.Gallery.PersistTimeout,
	}, metrics, log)

	collectionStore := usecase.NewCollectionStore(cfg.Gallery.MaxImages, persistence, metrics, log)
	restored := collectionStore.Load(ctx)
	log.Info("Gallery restored", "images", restored, "key", persistence.Key())

	errorSlot := state.NewErrorSlot()
	notificationSlot := state.NewNotificationSlot(cfg.Gallery.NotificationTTL, hub)
	previewSlot := state.NewPreviewSlot()
	events := usecase.NewEventEmitter(eventPublisher, cfg.NATS.SubjectPrefix, log)

	getGalleryUC := usecase.NewGetGalleryUseCase(collectionStore, errorSlot, notificationSlot, previewSlot, hub)
	addImagesUC := usecase.NewAddImagesUseCase(
		collectionStore,
		admissionPolicy,
		errorSlot,
		notificationSlot,
		getGalleryUC,
		events,
		metrics,
		log,
	)
	rotateImageUC := usecase.NewRotateImageUseCase(
		collectionStore,
		rotator,
		cfg.Gallery.MaxImageBytes,
		notificationSlot,
		previewSlot,
		getGalleryUC,
		events,
		metrics,
		log,
	)
	deleteImageUC := usecase.NewDeleteImageUseCase(collectionStore, notificationSlot, previewSlot, getGalleryUC, events, log)
	previewImageUC := usecase.NewPreviewImageUseCase(collectionStore, previewSlot, getGalleryUC, log)

	// 9. Dependency Injection - Interfaces Layer
	galleryAPIHandler := handler.NewGalleryAPIHandler(
		getGalleryUC,
		addImagesUC,
		rotateImageUC,
		deleteImageUC,
		previewImageUC,
		notificationSlot.Dismiss,
		handler.GalleryAPIConfig{
			UploadMaxBytes: cfg.Server.UploadMaxBytes,
			MaxImageBytes:  cfg.Gallery.MaxImageBytes,
		},
		log,
	)

	router := httpInterface.NewRouter(
		handler.NewGalleryPageHandler(getGalleryUC, log),
		galleryAPIHandler,
		handler.NewWebSocketHandler(hub, getGalleryUC, cfg.Security.AllowedOrigins, log),
		handler.NewHealthHandler(snapshotStore, log),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		metrics,
		middleware.NewIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		cfg.Security,
		log,
	)

	// 10. Настраиваем HTTP сервер
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		log.Info("Gallery available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 11. Ожидаем сигнал для graceful shutdown
	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	// Останавливаем hub и таймер уведомлений
	cancel()
	notificationSlot.Stop()

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Warn("Failed to close event publisher", "error", err.Error())
		}
	}
	if err := collectionStore.LastSaveError(); err != nil {
		log.Warn("Last snapshot save had failed", "error", err.Error())
	}
	if err := snapshotStore.Close(); err != nil {
		log.Warn("Failed to close snapshot store", "error", err.Error())
	}

	log.Info("Server stopped gracefully")

	if logsPublisher != nil {
		log.SetLogPublisher(nil)
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := logsPublisher.Close(flushCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush CloudWatch logs: %v\n", err)
		}
		flushCancel()
	}
}

// openSnapshotStore выбирает backend по STORAGE_BACKEND
func openSnapshotStore(ctx context.Context, cfg *config.Config) (port.SnapshotStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.Storage.Backend {
	case "sqlite":
		return sqlite.Open(cfg.Storage.SQLite.Path)
	case "postgres":
		return postgres.Open(connectCtx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN(),
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	case "redis":
		return redisstore.NewRedisSnapshotStore(connectCtx, redisstore.Config{
			Addr:      cfg.Storage.Redis.Addr(),
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: "img-uploader",
		})
	case "dynamodb":
		return dynamostore.NewSnapshotStore(connectCtx, dynamostore.Config{
			TableName:       cfg.Storage.DynamoDB.TableName,
			Region:          cfg.Storage.DynamoDB.Region,
			Endpoint:        cfg.Storage.DynamoDB.Endpoint,
			AccessKeyID:     cfg.Storage.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.Storage.DynamoDB.SecretAccessKey,
		})
	case "s3":
		return s3storage.NewSnapshotStore(connectCtx, s3storage.Config{
			Bucket:          cfg.Storage.S3.Bucket,
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
			KeyPrefix:       cfg.Storage.S3.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
