package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/config"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/database"
	attachmentHandler "github.com/narendra12543/Matrimony-Web-App-sub000/internal/handler/http/attachment"
	callHandler "github.com/narendra12543/Matrimony-Web-App-sub000/internal/handler/http/call"
	messageHandler "github.com/narendra12543/Matrimony-Web-App-sub000/internal/handler/http/message"
	notificationHandler "github.com/narendra12543/Matrimony-Web-App-sub000/internal/handler/http/notification"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/middleware"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/realtime"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cassandra"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/cockroach"
	redisrepo "github.com/narendra12543/Matrimony-Web-App-sub000/internal/repository/redis"
	"github.com/narendra12543/Matrimony-Web-App-sub000/internal/service/attachment"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/jwt"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/logger"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

func main() {
	// 1. Logger and configuration
	logger.InitDefault()
	defer logger.Sync()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		logger.Fatal("JWT_SECRET must be at least 32 characters")
	}
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret, constants.AccessTokenExpiry)

	// 2. Connect to CockroachDB
	ctx := context.Background()
	cockroachDB, err := database.NewDB(ctx, cfg.CockroachConnString(), nil)
	if err != nil {
		logger.Fatal("Failed to connect to CockroachDB", zap.Error(err))
	}
	defer cockroachDB.Close()
	logger.Info("Connected to CockroachDB")

	// 3. Connect to Cassandra
	cassandraDB, err := database.NewCassandraDB(&database.CassandraConfig{
		Hosts:    cfg.CassandraHosts,
		Keyspace: cfg.CassandraKeyspace,
		Username: cfg.CassandraUser,
		Password: cfg.CassandraPassword,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Cassandra", zap.Error(err))
	}
	defer cassandraDB.Close()
	logger.Info("Connected to Cassandra")

	// 4. Connect to Redis with degraded mode support
	database.InitRedisMetrics()
	redisDB, err := database.NewRedisDB(&database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       0,
		PoolSize: 10,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()
	redisDB.StartHealthCheck(ctx, 10*time.Second)
	logger.Info("Connected to Redis")

	// 5. Repositories
	callRepo := cockroach.NewCallRepository(cockroachDB.Pool)
	notificationRepo := cockroach.NewNotificationRepository(cockroachDB.Pool)
	conversationRepo := cockroach.NewConversationRepository(cockroachDB.Pool)
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)
	presenceRepo := redisrepo.NewPresenceRepository(redisDB)

	// 6. Attachment store
	attachmentSvc, err := attachment.NewService(&attachment.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize attachment store", zap.Error(err))
	}

	// 7. Realtime core
	registry := realtime.NewRegistry()
	presence := realtime.NewPresenceTracker(registry, presenceRepo)
	calls := realtime.NewCallManager(callRepo, presence, cfg.RingTimeout)
	relay := realtime.NewSignalingRelay(calls, registry)
	fanout := realtime.NewFanout(registry, messageRepo, notificationRepo, conversationRepo)
	hub := realtime.NewHub(registry, presence, calls, relay, fanout, conversationRepo)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	calls.StartSweeper(sweepCtx, cfg.SweepInterval)

	// 8. Metrics and HTTP handlers
	appMetrics := metrics.NewMetrics("realtime-service")
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	notificationHdlr := notificationHandler.NewHandler(notificationRepo)
	callHdlr := callHandler.NewHandler(callRepo)
	messageHdlr := messageHandler.NewHandler(messageRepo, conversationRepo)
	attachmentHdlr := attachmentHandler.NewHandler(attachmentSvc)

	// 9. Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetTrustedProxies(nil)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "realtime-service",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	revocationChecker := middleware.NewRedisRevocationChecker(redisDB.Client)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager, revocationChecker))
	{
		// WebSocket endpoint (token via Authorization header or ?token=)
		v1.GET("/ws", hub.ServeWS)

		v1.GET("/notifications", notificationHdlr.GetNotifications)
		v1.POST("/notifications/:id/read", notificationHdlr.MarkAsRead)
		v1.POST("/notifications/read-all", notificationHdlr.MarkAllAsRead)
		v1.DELETE("/notifications/:id", notificationHdlr.DeleteNotification)

		v1.GET("/calls", callHdlr.GetCalls)

		v1.GET("/messages", messageHdlr.GetMessages)
		v1.GET("/conversations", messageHdlr.GetConversations)

		v1.POST("/attachments/upload-url", attachmentHdlr.GenerateUploadURL)
		v1.GET("/attachments/download-url", attachmentHdlr.GenerateDownloadURL)
	}

	// 10. Start server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Realtime service starting",
			zap.String("port", cfg.Port),
			zap.String("ws_endpoint", "/v1/ws"),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
