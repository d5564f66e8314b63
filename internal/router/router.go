package router

import (
	"log"
	"time"

	"kindred/config"
	"kindred/internal/events"
	"kindred/internal/handler"
	"kindred/internal/middleware"
	"kindred/internal/repository"
	"kindred/internal/service"
	"kindred/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Setup wires repositories, services, the event bus and the connection
// registry into a gin engine. The bus and registry are returned so main owns
// their shutdown.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *events.Bus, *stream.Registry) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimitByIP(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))
	// Ingestion budget is per user, not per IP: phones behind carrier NAT
	// share addresses, and one device reports every few seconds.
	ingestLimit := middleware.RateLimitByUser(middleware.NewInMemoryRateLimiter(120, 60*time.Second))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	locRepo := repository.NewLocationRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	invRepo := repository.NewInvitationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	sightingRepo := repository.NewSightingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Event bus and connection registry (owned here, shut down by main)
	bus := events.NewBus(cfg.Events.Workers, cfg.Events.QueueSize)
	snapshotSvc := service.NewSnapshotService(relRepo, locRepo)
	registry := stream.NewRegistry(snapshotSvc.Snapshot, cfg.Circle.HeartbeatInterval)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	locationSvc := service.NewLocationService(deviceRepo, locRepo, bus)
	broadcastSvc := service.NewBroadcastService(relRepo, registry, snapshotSvc)
	alertSvc := service.NewAlertService(relRepo, locRepo, alertRepo, bus,
		cfg.Circle.ProximityThresholdMeters, cfg.Circle.AlertSuppressionWindow)
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, relRepo, fcmSvc)

	// Pipeline wiring: everything downstream of a commit runs on bus workers.
	bus.SubscribeAsync(events.KindLocationChanged, broadcastSvc.HandleLocationChanged)
	bus.SubscribeAsync(events.KindSightingReported, alertSvc.HandleSighting)
	bus.SubscribeAsync(events.KindAlertRaised, notifSvc.HandleAlertRaised)
	bus.SubscribeAsync(events.KindFoundReportFiled, notifSvc.HandleFoundReport)
	bus.SubscribeAsync(events.KindInvitationCreated, notifSvc.HandleInvitationCreated)
	bus.SubscribeAsync(events.KindInvitationResponded, notifSvc.HandleInvitationResponded)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	locationHandler := handler.NewLocationHandler(locationSvc, locRepo)
	relationshipHandler := handler.NewRelationshipHandler(invRepo, relRepo, bus)
	sightingHandler := handler.NewSightingHandler(sightingRepo, userRepo, relRepo, bus)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.PATCH("/fcm-token", authHandler.UpdateFCMToken)
			me.GET("/location", locationHandler.GetMyLocation)
			me.POST("/devices", deviceHandler.Register)
			me.GET("/devices", deviceHandler.List)
			me.PATCH("/devices/:id/deactivate", deviceHandler.Deactivate)
		}

		api.POST("/locations", authMw, ingestLimit, locationHandler.SubmitLocation)

		circle := api.Group("/circle")
		circle.Use(authMw)
		{
			circle.GET("", relationshipHandler.ListCircle)
			circle.GET("/labels", relationshipHandler.Labels)
			circle.POST("/invitations", relationshipHandler.Invite)
			circle.GET("/invitations", relationshipHandler.ListInvitations)
			circle.POST("/invitations/:id/respond", relationshipHandler.Respond)
			circle.DELETE("/members/:user_id", relationshipHandler.Remove)
		}

		api.POST("/sightings", authMw, ingestLimit, sightingHandler.Report)
		api.GET("/sightings/:subject_id", authMw, sightingHandler.ListForSubject)

		api.GET("/notifications", authMw, notificationHandler.List)
		api.PATCH("/notifications/:id/read", authMw, notificationHandler.MarkRead)
	}

	// Long-lived subscriber stream; token comes via query because browsers
	// cannot set headers on WebSocket upgrade.
	r.GET("/ws/stream", stream.UpgradeStream(&cfg.JWT, registry))

	return r, bus, registry
}
