package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintrack/portfolio-service/internal/api"
	"github.com/fintrack/portfolio-service/internal/config"
	"github.com/fintrack/portfolio-service/internal/database"
	"github.com/fintrack/portfolio-service/internal/kafka"
	"github.com/fintrack/portfolio-service/internal/ledger"
	"github.com/fintrack/portfolio-service/internal/marketdata"
	"github.com/fintrack/portfolio-service/internal/portfolio"
)

func main() {
	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	yahoo := marketdata.NewYahooProvider(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)
	prices := marketdata.NewCachedProvider(yahoo, redisClient, cfg.Redis.PriceTTL)
	demo := marketdata.NewDemoProvider()

	ledgerSvc := ledger.NewService(db)
	valuer := portfolio.NewValuer(db, prices, cfg.MarketData.Timeout)
	indicators := portfolio.NewIndicators(prices, demo)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventTopic)
	defer producer.Close()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumer := kafka.NewConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.ConsumerGroup,
		ledgerSvc, db,
	)
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			log.Printf("kafka consumer stopped: %v", err)
		}
	}()

	handler := api.NewHandler(
		ledgerSvc, valuer, indicators, db, prices, demo, producer,
		cfg.MarketData.LookbackDays,
	)
	router := api.SetupRoutes(handler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancelConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
