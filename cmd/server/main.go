package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/adapters/event"
	httpAdapter "github.com/khoahotran/talent-portfolio/adapters/http"
	"github.com/khoahotran/talent-portfolio/adapters/objectstore"
	"github.com/khoahotran/talent-portfolio/adapters/persistence"
	bankUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/bank"
	composeUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/compose"
	profileUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/profile"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	sharingUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/sharing"
	snapshotUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/snapshot"
	tmplUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/templatestate"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/auth"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
	"github.com/khoahotran/talent-portfolio/pkg/tracing"
)

func main() {
	runMigrations := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	fmt.Println("Start Talent Portfolio API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot load config: %v", err))
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "talent-portfolio-api")
	if err != nil {
		appLogger.Fatal("cannot init tracer provider", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", err)
		}
	}()

	if *runMigrations {
		if err := persistence.RunMigrations(cfg.DB.MigrationsPath, cfg.DB.DSN, appLogger); err != nil {
			appLogger.Fatal("cannot run migrations", err)
		}
	}

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	store, err := objectstore.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init object store", err)
	}

	m := metrics.New()
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)

	// Repositories
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	shareRepo := persistence.NewPostgresShareRepo(dbPool, appLogger)
	templateRepo := persistence.NewPostgresTemplateStateRepo(dbPool, appLogger)
	bankRepo := persistence.NewPostgresBankRepo(dbPool, appLogger)
	snapshotRepo := persistence.NewPostgresSnapshotRepo(dbPool, appLogger)
	urlCache := persistence.NewRedisURLCache(redisClient)

	// Services
	resolver := resolve.NewResolver(store, bankRepo, appLogger, m, resolve.Options{
		SignedURLTTL:   cfg.Resolver.SignedURLTTL,
		ListLimit:      cfg.Resolver.ListLimit,
		URLCache:       urlCache,
		CacheTTLMargin: cfg.Resolver.CacheTTLMargin,
	})
	loader := composeUC.NewLoader(profileRepo, shareRepo, templateRepo, appLogger)
	editor := sharingUC.NewEditor(shareRepo, appLogger, m, 0)
	defer editor.Close()

	// Use Cases
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, bankRepo, appLogger)
	shareUseCase := sharingUC.NewShareConfigUseCase(editor, profileRepo, resolver, appLogger)
	templateUseCase := tmplUC.NewTemplateStateUseCase(templateRepo, profileRepo, appLogger)
	previewUseCase := composeUC.NewPreviewUseCase(loader, resolver, appLogger)
	createSnapshotUseCase := snapshotUC.NewCreateSnapshotUseCase(loader, resolver, snapshotRepo, kafkaClient, m, appLogger)
	viewSnapshotUseCase := snapshotUC.NewGetSnapshotViewUseCase(snapshotRepo, resolver, appLogger)
	listSnapshotsUseCase := snapshotUC.NewListSnapshotsUseCase(snapshotRepo)
	uploadItemUseCase := bankUC.NewUploadItemUseCase(bankRepo, store, kafkaClient, appLogger)
	listItemsUseCase := bankUC.NewListItemsUseCase(bankRepo)

	// HTTP Handlers
	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Profile:  httpAdapter.NewProfileHandler(profileUseCase, appLogger),
		Share:    httpAdapter.NewShareHandler(shareUseCase, appLogger),
		Template: httpAdapter.NewTemplateHandler(templateUseCase, appLogger),
		Preview:  httpAdapter.NewPreviewHandler(previewUseCase, appLogger),
		Snapshot: httpAdapter.NewSnapshotHandler(createSnapshotUseCase, viewSnapshotUseCase, listSnapshotsUseCase, appLogger),
		Bank:     httpAdapter.NewBankHandler(uploadItemUseCase, listItemsUseCase, appLogger),
	}, jwtSvc, appLogger, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
}
