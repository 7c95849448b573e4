package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infrawatch/auth-service/internal/api"
	"github.com/infrawatch/auth-service/internal/config"
	"github.com/infrawatch/auth-service/internal/notify"
	"github.com/infrawatch/auth-service/internal/otp"
	"github.com/infrawatch/auth-service/internal/repository/postgres"
	"github.com/infrawatch/auth-service/internal/service"
	"github.com/infrawatch/auth-service/internal/token"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Notification sink: queue-backed when NATS is configured, otherwise a
	// logging no-op so local runs still work end to end.
	var sink notify.Sink = notify.LogSink{}
	if cfg.NATSURL != "" {
		queueSink, err := notify.NewQueueSink(cfg.NATSURL, cfg.EmailSubject)
		if err != nil {
			log.Fatalf("failed to connect to notification queue: %v", err)
		}
		defer queueSink.Close()
		sink = queueSink
	}

	clock := service.SystemClock()
	codec := token.NewCodec([]byte(cfg.JWTSecret), clock.Now)

	// Initialize services
	services := service.NewServices(repos, codec, otp.NewCryptoGenerator(), sink, clock, cfg)

	// Initialize router
	router := api.NewRouter(services, repos, codec, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
