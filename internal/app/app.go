package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"postgate/internal/account"
	gatewayHTTP "postgate/internal/controller/http"
	"postgate/internal/convert"
	"postgate/internal/entity"
	"postgate/internal/idempotency"
	"postgate/internal/platform"
	"postgate/internal/platform/telegram"
	"postgate/internal/usecase"
	"postgate/pkg/config"
	"postgate/pkg/logger"
)

// accountSource adapts the config layer to the resolver's ConfigProvider.
type accountSource struct {
	cfg *config.Config
}

func (s *accountSource) GetAccount(name string) (*entity.AccountConfig, bool) {
	stored, ok := s.cfg.GetAccount(name)
	if !ok {
		return nil, false
	}
	return &entity.AccountConfig{
		Platform:  stored.Platform,
		Auth:      stored.Auth,
		ChannelID: stored.ChannelID,
		MaxBody:   stored.MaxBody,
	}, true
}

func Run(cfg *config.Config, log *logger.Logger) {
	// Idempotency backend: redis when configured, process-local otherwise.
	var store idempotency.Store
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = idempotency.NewRedisStore(redisClient)
		log.Info("idempotency store: redis at %s", cfg.RedisAddr)
	} else {
		store = idempotency.NewMemoryStore()
		log.Info("idempotency store: in-memory (single instance only)")
	}

	converter := convert.New()
	registry := platform.NewRegistry(
		telegram.New(telegram.Config{}, converter, log),
	)
	resolver := account.NewResolver(&accountSource{cfg: cfg}, log)

	publishUseCase := usecase.NewPublishUseCase(resolver, registry, store, cfg.Common, log)
	postHandler := gatewayHTTP.NewPostHandler(publishUseCase, log)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/posts", postHandler.PublishPost)
		api.POST("/posts/preview", postHandler.PreviewPost)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Publishing gateway starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	log.Info("Gateway exited")
}
