package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-faculty-api/api/swagger"
	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-faculty-api/internal/middleware"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	"github.com/noah-isme/sma-faculty-api/internal/repository"
	"github.com/noah-isme/sma-faculty-api/internal/service"
	"github.com/noah-isme/sma-faculty-api/pkg/cache"
	"github.com/noah-isme/sma-faculty-api/pkg/config"
	"github.com/noah-isme/sma-faculty-api/pkg/connectivity"
	"github.com/noah-isme/sma-faculty-api/pkg/database"
	"github.com/noah-isme/sma-faculty-api/pkg/jobs"
	"github.com/noah-isme/sma-faculty-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-faculty-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-faculty-api/pkg/middleware/requestid"
)

// @title SMA Faculty API
// @version 0.1.0
// @description Faculty request lifecycle and conflict resolution service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	permissionRepo := repository.NewPermissionRepository(db)
	requestRepo := repository.NewCoverRequestRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tombstoneRepo := repository.NewTombstoneRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)
	outboxRepo := repository.NewOutboxRepository(redisClient, cfg.Outbox.Key)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	visibilitySvc := service.NewVisibilityService(tombstoneRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, visibilitySvc, nil, jobs.QueueConfig{
		Workers:    cfg.Notifier.Workers,
		MaxRetries: cfg.Notifier.MaxRetries,
		RetryDelay: cfg.Notifier.RetryDelay,
		Logger:     logr,
	}, logr)
	permissionSvc := service.NewPermissionService(permissionRepo, notificationSvc, validate, logr)
	requestSvc := service.NewCoverRequestService(requestRepo, sessionRepo, notificationSvc, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, logr)
	watchlistSvc := service.NewWatchlistService(watchlistRepo, cacheRepo,
		cfg.Watchlist.AbsenceThreshold, cfg.Watchlist.WindowDays, cfg.Watchlist.CacheTTL, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	// Connectivity monitor drives outbox replay: queued actions flush on
	// every offline-to-online transition.
	monitor := connectivity.NewMonitor(storeProbe(db), connectivity.MonitorConfig{
		Interval: cfg.Outbox.ProbeInterval,
		Timeout:  cfg.Outbox.ProbeTimeout,
		Logger:   logr,
	})
	outboxSvc := service.NewOutboxService(outboxRepo, monitor.Online, metrics, logr)
	registerOutboxExecutors(outboxSvc, permissionSvc, requestSvc, visibilitySvc)
	monitor.OnOnline(func(ctx context.Context) {
		if _, err := outboxSvc.Flush(ctx); err != nil {
			logr.Sugar().Warnw("outbox flush failed", "error", err)
		}
	})

	rootCtx := context.Background()
	notificationSvc.Start(rootCtx)
	defer notificationSvc.Stop()
	monitor.Start(rootCtx)
	defer monitor.Stop()

	// Handlers.
	permissionHandler := handler.NewPermissionHandler(permissionSvc, outboxSvc)
	requestHandler := handler.NewCoverRequestHandler(requestSvc, visibilitySvc, outboxSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, visibilitySvc, outboxSvc)
	outboxHandler := handler.NewOutboxHandler(outboxSvc)
	watchlistHandler := handler.NewWatchlistHandler(watchlistSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc))
	{
		perms := api.Group("/permissions")
		perms.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleIncharge))
		{
			perms.GET("", permissionHandler.List)
			perms.POST("", permissionHandler.Grant)
			perms.PUT("/:id", permissionHandler.Update)
			perms.DELETE("/:id", permissionHandler.Revoke)
		}

		requests := api.Group("/cover-requests")
		{
			requests.GET("", requestHandler.List)
			requests.POST("", requestHandler.Create)
			requests.POST("/:id/respond", requestHandler.Respond)
			requests.POST("/:id/cancel", requestHandler.Cancel)
			requests.POST("/:id/hide", requestHandler.Hide)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.DELETE("/:id", notificationHandler.Delete)
			notifications.POST("/:id/hide", notificationHandler.Hide)
		}

		outbox := api.Group("/outbox")
		{
			outbox.GET("", outboxHandler.Status)
			outbox.POST("/flush", outboxHandler.Flush)
		}

		if cfg.Watchlist.Enabled {
			watchlist := api.Group("/watchlist")
			watchlist.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleIncharge))
			{
				watchlist.GET("", watchlistHandler.Current)
				watchlist.GET("/export", watchlistHandler.Export)
			}
		}

		api.GET("/sessions", sessionHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// storeProbe reports whether the backing store answers within the monitor's
// probe timeout.
func storeProbe(db *sqlx.DB) connectivity.Probe {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// registerOutboxExecutors binds each queued action type to the service call
// it replays. Executors return the service error unchanged so the outbox can
// tell transient infrastructure failures from business rejections.
func registerOutboxExecutors(
	outbox *service.OutboxService,
	permissions *service.PermissionService,
	requests *service.CoverRequestService,
	visibility *service.VisibilityService,
) {
	outbox.Register(models.ActionGrantPermission, func(ctx context.Context, action models.QueuedAction) error {
		var req dto.GrantPermissionRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return err
		}
		_, err := permissions.Grant(ctx, req, action.ActorID)
		return err
	})
	outbox.Register(models.ActionUpdatePermission, func(ctx context.Context, action models.QueuedAction) error {
		var payload dto.UpdatePermissionAction
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return err
		}
		_, err := permissions.Update(ctx, payload.ID, payload.Patch)
		return err
	})
	outbox.Register(models.ActionRevokePermission, func(ctx context.Context, action models.QueuedAction) error {
		var payload dto.RevokePermissionAction
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return err
		}
		return permissions.Revoke(ctx, payload.ID)
	})
	outbox.Register(models.ActionCreateRequest, func(ctx context.Context, action models.QueuedAction) error {
		var req dto.CreateCoverRequest
		if err := json.Unmarshal(action.Payload, &req); err != nil {
			return err
		}
		_, err := requests.Create(ctx, req, action.ActorID)
		return err
	})
	outbox.Register(models.ActionRespondRequest, func(ctx context.Context, action models.QueuedAction) error {
		var payload dto.RespondRequestAction
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return err
		}
		_, err := requests.Respond(ctx, payload.ID, payload.Request, action.ActorID)
		return err
	})
	outbox.Register(models.ActionCancelRequest, func(ctx context.Context, action models.QueuedAction) error {
		var payload dto.CancelRequestAction
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return err
		}
		_, err := requests.Cancel(ctx, payload.ID, action.ActorID)
		return err
	})
	outbox.Register(models.ActionHideItem, func(ctx context.Context, action models.QueuedAction) error {
		var payload dto.HideItemAction
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return err
		}
		return visibility.Hide(ctx, action.ActorID, payload.ItemID, payload.ItemType)
	})
}
