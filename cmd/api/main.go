package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atcloud/message-center/internal/application/push"
	"github.com/atcloud/message-center/internal/config"
	"github.com/atcloud/message-center/internal/infrastructure/dynamo"
	jwtinfra "github.com/atcloud/message-center/internal/infrastructure/jwt"
	snsinfra "github.com/atcloud/message-center/internal/infrastructure/sns"
	"github.com/atcloud/message-center/internal/infrastructure/sse"
	transporthttp "github.com/atcloud/message-center/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	bridgeCtx, stopBridge := context.WithCancel(context.Background())
	defer stopBridge()

	// SSE hub, with a redis bridge when running multiple instances.
	hub := sse.NewHub()
	var bridge *sse.Bridge
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		bridge = sse.NewBridge(rdb, cfg.RedisSSEChannel, hub)
		go bridge.Run(bridgeCtx)
	}

	gateways := push.Multi{sse.NewGateway(hub, bridge)}

	// SNS push sink (optional — skipped without a topic).
	if cfg.SNSTopicARN != "" {
		if pub, err := snsinfra.NewPublisher(cfg); err == nil {
			gateways = append(gateways, pub)
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		MessageRepo: dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages),
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		Hub:         hub,
		Gateway:     gateways,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// No write timeout: /v1/stream holds SSE connections open
		// indefinitely. Handlers bound their own work via request contexts.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
