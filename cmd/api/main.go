package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docurail/metrodocs-backend/api/controllers"
	"github.com/docurail/metrodocs-backend/api/routes"
	"github.com/docurail/metrodocs-backend/internal/auth"
	"github.com/docurail/metrodocs-backend/internal/departments"
	"github.com/docurail/metrodocs-backend/internal/documents"
	"github.com/docurail/metrodocs-backend/internal/notifications"
	"github.com/docurail/metrodocs-backend/internal/users"
	"github.com/docurail/metrodocs-backend/pkg/ai"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/db"
	"github.com/docurail/metrodocs-backend/pkg/env"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/metrics"
	"github.com/docurail/metrodocs-backend/pkg/migrate"
	"github.com/docurail/metrodocs-backend/pkg/pubsub"
	"github.com/docurail/metrodocs-backend/pkg/redis"
	"github.com/docurail/metrodocs-backend/pkg/storage/disk"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	blobStore, err := disk.NewStore(cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads storage", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	departmentsRepo := departments.NewRepository(dbClient.DB())
	documentsRepo := documents.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	registry := prometheus.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(registry)

	pingers := []controllers.NamedPinger{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}

	documentsParams := documents.ServiceParams{
		Repo:        documentsRepo,
		Store:       blobStore,
		Admins:      usersRepo,
		Departments: departmentsRepo,
		Metrics:     apiMetrics,
		Logger:      logg,
		Uploads:     cfg.Uploads,
	}

	if cfg.AI.BaseURL != "" {
		aiClient, err := ai.NewClient(cfg.AI)
		if err != nil {
			logg.Error(context.Background(), "failed to create ai client", err)
			os.Exit(1)
		}
		documentsParams.Enricher = aiClient
	} else {
		logg.Warn(context.Background(), "ai server url not set, uploads skip enrichment")
	}

	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		documentsParams.Publisher = pubsubClient
		pingers = append(pingers, controllers.NamedPinger{Name: "pubsub", Pinger: pubsubClient})
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	documentsParams.Notifier = notificationsService

	documentsService, err := documents.NewService(documentsParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		Departments:    departmentsRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	departmentsService, err := departments.NewService(departmentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create departments service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			Metrics:              apiMetrics,
			Registry:             registry,
			Redis:                redisClient,
			AuthService:          authService,
			UsersService:         usersService,
			DepartmentsService:   departmentsService,
			DocumentsService:     documentsService,
			NotificationsService: notificationsService,
			Pingers:              pingers,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
