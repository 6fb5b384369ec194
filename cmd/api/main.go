package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/plantpal-service/internal/api/http"
	"github.com/spec-kit/plantpal-service/internal/api/http/handlers"
	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/config"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/observability"
	"github.com/spec-kit/plantpal-service/internal/persistence"
	"github.com/spec-kit/plantpal-service/internal/provider/cloudinary"
	"github.com/spec-kit/plantpal-service/internal/provider/groq"
	"github.com/spec-kit/plantpal-service/internal/provider/plantid"
	"github.com/spec-kit/plantpal-service/internal/realtime"
	"github.com/spec-kit/plantpal-service/internal/repository"
	"github.com/spec-kit/plantpal-service/internal/service"
	"github.com/spec-kit/plantpal-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFiles := pflag.StringSlice("env-file", nil, "dotenv files to load before reading the environment")
	pflag.Parse()

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	tp := observability.InitTracing(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	deps := map[string]handlers.Pinger{"postgres": pg}
	var redisClient *redis.Client
	if cfg.Realtime.Fanout == "redis" {
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to configure redis", zap.Error(err))
		}
		defer rdb.Close()
		deps["redis"] = rdb
		redisClient = rdb.Client
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	plantRepo := repository.NewPlantRepository(pool)

	recognizer := plantid.NewClient(plantid.Config{
		BaseURL: cfg.PlantID.BaseURL,
		APIKey:  cfg.PlantID.APIKey,
		Timeout: cfg.PlantID.Timeout(),
	}, logger, metrics)

	store, err := cloudinary.NewStore(cloudinary.Config{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
	}, logger, metrics)
	if err != nil {
		logger.Fatal("failed to init image store", zap.Error(err))
	}

	assistant, err := groq.NewAssistant(ctx, groq.Config{
		BaseURL: cfg.Assistant.BaseURL,
		APIKey:  cfg.Assistant.APIKey,
		Model:   cfg.Assistant.Model,
		Timeout: cfg.Assistant.Timeout(),
	}, metrics)
	if err != nil {
		logger.Fatal("failed to init chat assistant", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	dispatcher := events.NewInMemoryDispatcher(logger)

	hub := realtime.NewHub(cfg.Realtime.SendQueueSize, logger, metrics)
	broker := realtime.NewBroker(hub, redisClient, logger)

	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, dispatcher, logger)
	gardenService := service.NewGardenService(service.GardenDependencies{
		Plants:     plantRepo,
		Recognizer: recognizer,
		Store:      store,
		Dispatcher: dispatcher,
	}, cfg.Cloudinary.GardenFolder, logger)
	diagnosisService := service.NewDiagnosisService(recognizer, logger)
	chatService := service.NewChatService(plantRepo, assistant, logger)
	profileService := service.NewProfileService(userRepo, store, dispatcher, cfg.Cloudinary.ProfileFolder, logger)
	adminService := service.NewAdminService(userRepo, plantRepo)
	notificationService := service.NewNotificationService(dispatcher, broker, logger)

	workerDone := worker.StartNotificationWorker(ctx, notificationService, broker, logger)

	app := httptransport.NewApp(httptransport.AppOptions{
		Name:        cfg.App.Name,
		BodyLimit:   cfg.Upload.BodyLimit(),
		CORSOrigins: cfg.App.CORSOrigins,
		Logger:      logger,
		Metrics:     metrics,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var limiter *httptransport.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httptransport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond(), cfg.RateLimit.Burst)
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(authService),
		Garden:         handlers.NewGardenHandler(gardenService),
		Diagnosis:      handlers.NewDiagnosisHandler(diagnosisService),
		Chat:           handlers.NewChatHandler(chatService),
		Profile:        handlers.NewProfileHandler(profileService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		RateLimiter:    limiter,
		Upload:         cfg.Upload.Intake(),
		Gatherer:       reg,
	})

	wsServer := realtime.NewServer(hub, tokens, realtime.ServerConfig{
		TrustClientRoom: cfg.Realtime.TrustClientRoom,
		AllowedOrigins:  cfg.Realtime.AllowedOrigins,
		ReadTimeout:     cfg.Realtime.ReadTimeout(),
		WriteTimeout:    cfg.Realtime.WriteTimeout(),
		PingInterval:    cfg.Realtime.PingInterval(),
	}, logger)
	realtimeSrv := &http.Server{
		Addr:              cfg.Realtime.Addr(),
		Handler:           wsServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("realtime listening", zap.String("addr", realtimeSrv.Addr), zap.String("fanout", cfg.Realtime.Fanout))
		if err := realtimeSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("realtime listen", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := realtimeSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("realtime shutdown", zap.Error(err))
	}
	hub.Close()
	cancel()

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("notification worker did not stop in time")
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
