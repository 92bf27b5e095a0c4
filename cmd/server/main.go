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

	"techstore/config"
	"techstore/internal/api"
	"techstore/internal/broker"
	"techstore/internal/service"
	"techstore/internal/session"
	"techstore/internal/store"
	"techstore/internal/util"
	"techstore/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting techstore checkout service")

	tp, err := util.InitTracer("techstore", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Store.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data store: %v", err)
	}
	defer db.Close()
	logger.Info("Data store opened", zap.String("data_dir", cfg.Store.DataDir))

	sessionTTL := time.Duration(cfg.Business.SessionTTLHours) * time.Hour
	var sessions session.Store
	redisStore, err := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sessionTTL)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory sessions", zap.Error(err))
		sessions = session.NewMemoryStore()
	} else {
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	eventPublisher := broker.NewEventPublisher(producer)

	shipping := service.ShippingConfig{
		Threshold: cfg.Business.ShippingThreshold,
		Fee:       cfg.Business.ShippingFee,
	}

	cartService := service.NewCartService(db, sessions, shipping)
	attributionService := service.NewAttributionService(sessions)
	numbers := service.NewOrderNumberGenerator(cfg.Business.OrderNumberMaxAttempts)
	checkoutService := service.NewCheckoutService(
		db, sessions, eventPublisher, numbers, shipping,
		cfg.Business.RequireDurableOrder,
	)
	notificationService := service.NewNotificationService(eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(consumer, notificationService)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			logger.Error("Notification worker stopped", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(db, cartService, checkoutService, attributionService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	notificationWorker.Stop()

	logger.Info("Server exited")
}
