package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/adapters/event"
	"github.com/khoahotran/talent-portfolio/adapters/objectstore"
	"github.com/khoahotran/talent-portfolio/adapters/persistence"
	composeUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/compose"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	snapshotUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/snapshot"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
	"github.com/khoahotran/talent-portfolio/pkg/tracing"
)

func main() {
	fmt.Println("Starting Talent Portfolio Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot load config: %v", err))
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "talent-portfolio-worker")
	if err != nil {
		appLogger.Fatal("cannot init tracer provider", err)
	}
	defer tp.Shutdown(context.Background())

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	store, err := objectstore.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init object store", err)
	}

	// Repositories
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	shareRepo := persistence.NewPostgresShareRepo(dbPool, appLogger)
	templateRepo := persistence.NewPostgresTemplateStateRepo(dbPool, appLogger)
	bankRepo := persistence.NewPostgresBankRepo(dbPool, appLogger)
	snapshotRepo := persistence.NewPostgresSnapshotRepo(dbPool, appLogger)

	// Worker Use Case
	m := metrics.New()
	resolver := resolve.NewResolver(store, bankRepo, appLogger, m, resolve.Options{
		SignedURLTTL: cfg.Resolver.SignedURLTTL,
		ListLimit:    cfg.Resolver.ListLimit,
	})
	loader := composeUC.NewLoader(profileRepo, shareRepo, templateRepo, appLogger)
	createSnapshotUC := snapshotUC.NewCreateSnapshotUseCase(loader, resolver, snapshotRepo, kafkaClient, m, appLogger)
	processDisclosureUC := snapshotUC.NewProcessDisclosureEventUseCase(createSnapshotUC, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicDisclosureEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicDisclosureEvents))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		l := appLogger.With(zap.String("topic", msg.Topic), zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		var payload event.DisclosureEventPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			l.Error("Failed to unmarshal event, skipping", err)
			commitMessage(consumer, msg, l)
			continue
		}

		err = processDisclosureUC.Execute(ctx, payload)
		if err != nil && !errors.Is(err, apperror.ErrInvalidInput) {
			// left uncommitted so the group redelivers it
			l.Error("Failed to process disclosure event", err, zap.String("owner_id", payload.OwnerID.String()))
			continue
		}
		if err != nil {
			l.Warn("Dropping invalid disclosure event", zap.Error(err))
		}
		commitMessage(consumer, msg, l)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, l logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		l.Error("Failed to commit message", err)
	}
}
