package main

// @title           Flow Chat Service API
// @version         1.0
// @description     Friendship-gated real-time messaging backend
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flow-chat-service/internal/adapters/activity"
	"flow-chat-service/internal/adapters/blob"
	"flow-chat-service/internal/api/routes"
	"flow-chat-service/internal/config"
	"flow-chat-service/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting flow chat server")

	// Redis powers cross-instance fan-out; a single instance still works
	// without it.
	redisClient, err := database.NewRedisConnection(cfg.Redis.URL)
	if err != nil {
		slog.Warn("Redis unavailable, running without cross-instance fan-out", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize attachment storage
	blobStore, err := blob.NewMinioStore(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.Secure,
	)
	if err != nil {
		slog.Error("Failed to initialize attachment storage", "error", err)
		os.Exit(1)
	}

	// Activity logging goes to Kafka when brokers are configured,
	// otherwise it is a no-op.
	var activityLog activity.Logger = activity.NopLogger{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := activity.NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			slog.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		activityLog = activity.NewKafkaLogger(producer, cfg.Kafka.Topic)
	}

	// Initialize router with all dependencies
	router := routes.NewRouter(db, redisClient, blobStore, activityLog, cfg.JWT.Secret, cfg.JWT.Expire)
	router.SetupRoutes()

	hub := router.Hub()
	go hub.Run()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
