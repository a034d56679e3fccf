package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/rms/backend/docs" // swagger docs
	appfulfillment "github.com/rms/backend/internal/application/fulfillment"
	appidentity "github.com/rms/backend/internal/application/identity"
	apprma "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/infrastructure/auth"
	"github.com/rms/backend/internal/infrastructure/cache"
	"github.com/rms/backend/internal/infrastructure/config"
	"github.com/rms/backend/internal/infrastructure/logger"
	"github.com/rms/backend/internal/infrastructure/merp"
	"github.com/rms/backend/internal/infrastructure/persistence"
	"github.com/rms/backend/internal/infrastructure/storage"
	"github.com/rms/backend/internal/infrastructure/telemetry"
	"github.com/rms/backend/internal/interfaces/http/handler"
	"github.com/rms/backend/internal/interfaces/http/middleware"
	"github.com/rms/backend/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title						RMS Backend API
// @version					1.0
// @description				Return Merchandise Authorization service: RMA lifecycle, approvals, receiving, QC and fulfillment.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Customer portal token. Format: Bearer {token}
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting RMS server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter("rms-backend")

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.Bridge(log, logsProvider, cfg.Telemetry.ServiceName)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories and transaction scopes
	rmaRepo := persistence.NewGormRMARepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	integrationLogRepo := persistence.NewGormIntegrationLogRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	lifecycleMetrics, err := telemetry.NewLifecycleMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register lifecycle metrics", zap.Error(err))
	}

	// External integrations
	adapter, err := merp.NewAdapter(cfg.MERP, integrationLogRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize MERP adapter", zap.Error(err))
	}
	dispatcher := appfulfillment.NewDispatcher(adapter, txScope.Audit(), lifecycleMetrics, log)

	objectStorage, err := storage.NewObjectStorage(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize attachment storage", zap.Error(err))
	}

	lifecycleOpts := []apprma.LifecycleOption{
		apprma.WithFulfillmentDispatcher(dispatcher),
		apprma.WithTransitionObserver(lifecycleMetrics),
		apprma.WithMaxNumberAttempts(cfg.RMA.NumberMaxAttempts),
		apprma.WithLogger(log),
	}
	if cfg.RMA.NumberSequence == "redis" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		lifecycleOpts = append(lifecycleOpts, apprma.WithNumberSequence(cache.NewRedisNumberSequence(redisClient)))
		log.Info("RMA numbers allocated from Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Application services
	lifecycleService := apprma.NewLifecycleService(rmaRepo, txScope.RMA(), lifecycleOpts...)
	queryService := apprma.NewQueryService(rmaRepo, auditRepo)
	collaborationService := apprma.NewCollaborationService(
		lifecycleService,
		rmaRepo,
		attachmentRepo,
		objectStorage,
		cfg.Storage.PresignExpiration,
		log,
	)
	userService := appidentity.NewUserService(userRepo, txScope.Identity(), log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, db)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any", middleware.SwaggerGate(cfg.Swagger.Enabled), ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers := router.Handlers{
		RMA:           handler.NewRMAHandler(lifecycleService, queryService),
		Line:          handler.NewLineHandler(lifecycleService),
		Approval:      handler.NewApprovalHandler(lifecycleService, queryService),
		Finance:       handler.NewFinanceHandler(queryService),
		Collaboration: handler.NewCollaborationHandler(collaborationService),
		User:          handler.NewUserHandler(userService),
		System:        systemHandler,
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	routeCount := 0
	for _, group := range router.RMSGroups(handlers,
		middleware.PortalAuth(auth.NewPortalTokenVerifier(cfg.JWT), log),
		middleware.ResolveActor(userService),
		middleware.SpanEnricher(),
	) {
		routeCount += len(group.Routes())
		r.Register(group)
	}
	r.Setup()
	log.Info("Routes registered", zap.Int("count", routeCount))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
