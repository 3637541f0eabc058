/**
 * @description
 * This is the main entry point for the WorkNest marketplace service. It is
 * responsible for initializing all components of the service, including
 * configuration, database connection, external API clients, message brokers,
 * repositories, the core application service, the notification dispatcher,
 * and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/robfig/cron/v3: Schedules the notification outbox sweep.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/payments: Client for the card-payment gateway.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/worknest/worknest/internal/api"
	"github.com/worknest/worknest/internal/app"
	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/pkg/payments"
	rmrabbit "github.com/worknest/worknest/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting worknest\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer for notification events. The broker
	// being down must not keep the marketplace from booting: the outbox
	// holds undispatched rows until it comes back.
	var producer rmrabbit.Publisher
	eventProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the payment gateway client for coin purchases.
	var gateway *payments.Client
	if strings.TrimSpace(cfg.GatewayAPIBaseURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"payment gateway not configured; coin purchases disabled\" env=GATEWAY_API_BASE_URL")
	} else {
		gateway = payments.NewClient(cfg.GatewayAPIBaseURL, cfg.GatewayAPIKey, cfg.GatewayCurrency)
	}

	// Redis backs the submission rate limiter; missing Redis degrades to
	// no throttling rather than blocking startup.
	var redisClient *redis.Client
	if cfg.SubmitRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; submission rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; submission rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; submission rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	var limiter app.RateLimiter
	if redisClient != nil {
		limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Initialize the core application service with its dependencies.
	service := app.NewService(repository, gateway, producer, limiter, app.Options{
		AllowResubmission:   cfg.AllowResubmission,
		WorkerStartingCoins: cfg.WorkerStartingCoins,
		BuyerStartingCoins:  cfg.BuyerStartingCoins,
		BestWorkersLimit:    cfg.BestWorkersLimit,
		SubmitRateLimit:     cfg.SubmitRateLimitPerMinute,
		SubmitRateWindow:    time.Minute,
	})

	// Schedule the notification outbox sweep. Lifecycle operations write
	// notification rows durably; this job pushes them to the broker.
	scheduler := cron.New(cron.WithSeconds())
	sweepSpec := fmt.Sprintf("@every %ds", cfg.NotificationSweepSeconds)
	_, err = scheduler.AddFunc(sweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		count, sweepErr := service.DispatchPendingNotifications(ctx, cfg.NotificationExchange)
		if sweepErr != nil {
			log.Printf("level=warn component=dispatcher msg=\"notification sweep failed\" err=%v", sweepErr)
			return
		}
		if count > 0 {
			log.Printf("level=info component=dispatcher msg=\"notifications dispatched\" count=%d", count)
		}
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"dispatcher schedule failed\" err=%v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize the API handlers and router.
	handlers := api.NewHandlers(service)
	router := api.Routes(handlers, cfg.JWKSURL, cfg.Origins())

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
