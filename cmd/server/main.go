package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"qrmenu-service/config"
	"qrmenu-service/internal/api"
	"qrmenu-service/internal/broker"
	"qrmenu-service/internal/cart"
	"qrmenu-service/internal/feed"
	"qrmenu-service/internal/gateway"
	"qrmenu-service/internal/redisclient"
	"qrmenu-service/internal/service"
	"qrmenu-service/internal/store"
	"qrmenu-service/internal/util"
	"qrmenu-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting qrmenu service",
		zap.String("env", cfg.Server.Env),
		zap.String("feed_mode", cfg.Feed.Mode),
		zap.Bool("strict_transitions", cfg.Business.StrictTransitions))

	tp, err := util.InitTracer(util.TracingConfig{
		ServiceName:    "qrmenu-service",
		Environment:    cfg.Server.Env,
		JaegerEndpoint: cfg.Observ.JaegerEndpoint,
		SampleRatio:    cfg.Observ.SampleRatio,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	if cfg.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set, online checkout will fail")
	}
	stripeGateway := gateway.NewStripeGateway(cfg.Payment.StripeSecretKey)

	orderService := service.NewOrderService(db, eventPublisher, cfg.Business.StrictTransitions)
	paymentService := service.NewPaymentService(db, stripeGateway, redisClient, eventPublisher, service.PaymentConfig{
		PublicBaseURL:   cfg.Payment.PublicBaseURL,
		DefaultCurrency: cfg.Payment.DefaultCurrency,
		VerifyLockTTL:   cfg.Business.VerifyLockTTL,
	})
	waiterService := service.NewWaiterService(db, eventPublisher)
	productService := service.NewProductService(db, eventPublisher)
	cartService := cart.NewService(redisClient, cfg.Business.CartTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var wg sync.WaitGroup

	hub := feed.NewHub()
	builder := feed.NewBuilder(db)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(workerCtx)
	}()

	var refresher feed.Refresher
	var feedWorker *worker.FeedWorker
	switch cfg.Feed.Mode {
	case feed.ModePush:
		push := feed.NewPushRefresher(builder, hub, cfg.Feed.SafetyInterval)
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		feedWorker = worker.NewFeedWorker(consumer, push)
		refresher = push
	case feed.ModePoll:
		refresher = feed.NewPollRefresher(builder, hub, cfg.Feed.PollInterval)
	default:
		logger.Fatal("Unknown FEED_MODE", zap.String("mode", cfg.Feed.Mode))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := refresher.Run(workerCtx); err != nil {
			logger.Error("Feed refresher error", zap.Error(err))
		}
	}()

	if feedWorker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feedWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Feed worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Orders:   orderService,
		Payments: paymentService,
		Waiters:  waiterService,
		Products: productService,
		Carts:    cartService,
		Feed:     builder,
		Hub:      hub,
		Checks: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if feedWorker != nil {
		feedWorker.Stop()
	}
	wg.Wait()

	logger.Info("Server exited")
}
