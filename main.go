package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"todolist/api"
	"todolist/domain"
	"todolist/storage"
)

func main() {
	cfg, err := loadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	tp := newTracerProvider(logger, cfg.Tracing)
	otel.SetTracerProvider(tp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	lists := domain.NewListService(storage.NewTraced(backend, tp), logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(api.RequestLogger(logger))
	e.Use(echoprometheus.NewMiddleware("todolist"))
	e.Use(api.Static(cfg.PublicDir))
	e.GET("/metrics", echoprometheus.NewHandler())
	api.Register(e, lists, logger)

	go func() {
		logger.WithFields(log.Fields{"port": cfg.Port, "backend": cfg.Storage.Backend}).Info("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown server")
	}
	if err := closeStorage(shutdownCtx); err != nil {
		logger.WithError(err).Error("close storage")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown tracer provider")
	}
}

// openStorage builds the configured backend and a function that releases it.
func openStorage(ctx context.Context, cfg storageConfig) (domain.ListStorage, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch cfg.Backend {
	case backendMongo:
		st, err := storage.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case backendRedis:
		rc := redis.NewClient(storage.ParseRedisOptions(cfg.RedisConnectionString))
		return storage.NewRedis(rc, cfg.RedisKeyPrefix), func(context.Context) error { return rc.Close() }, nil
	default:
		st, err := storage.NewTables(cfg.ConnectionString, cfg.ItemsTable, cfg.ListsTable)
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	}
}
