package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kevinwiwaha/larabench/internal/auth"
	"github.com/kevinwiwaha/larabench/internal/config"
	"github.com/kevinwiwaha/larabench/internal/es"
	"github.com/kevinwiwaha/larabench/internal/handlers"
	"github.com/kevinwiwaha/larabench/internal/logging"
	loggingmw "github.com/kevinwiwaha/larabench/internal/middleware/logging"
	"github.com/kevinwiwaha/larabench/internal/mykafka"
	"github.com/kevinwiwaha/larabench/internal/redisx"
	"github.com/kevinwiwaha/larabench/internal/service"
	"github.com/kevinwiwaha/larabench/internal/store"
	httpserver "github.com/kevinwiwaha/larabench/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	db, err := store.Open(ctx, configuration)
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer(strings.Split(configuration.KAFKA_ADDRESS, ","))
	}

	// Left nil when redis is not configured; a nil *redisx.Guard must never be
	// stored in the handler's interface field.
	var guard handlers.IdempotencyGuard
	if configuration.REDIS_ADDR != "" {
		rdb, err := redisx.Connect(ctx, configuration.REDIS_ADDR)
		if err != nil {
			logger.Error("redis init failed", "error", err)
			os.Exit(1)
		}
		guard = redisx.NewGuard(rdb)
	}

	var searchHandler *handlers.SearchHandler
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			logger.Error("elasticsearch init failed", "error", err)
			os.Exit(1)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: es.ProductIndex}
	}

	tokens := &auth.TokenService{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:             db,
		OrderHandler:   &handlers.OrderHandler{Svc: &service.OrderService{DB: db}, Producer: producer, Guard: guard},
		ProductHandler: &handlers.ProductHandler{Svc: &service.CatalogService{DB: db}, Producer: producer, ES: esClient},
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		SearchHandler:  searchHandler,
		Tokens:         tokens,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", configuration.HTTP_ADDR, "driver", configuration.DB_DRIVER)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
