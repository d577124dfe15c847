package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/config"
	"surveyhub/internal/normalizer"
	"surveyhub/internal/repository"
	"surveyhub/internal/service"
	"surveyhub/internal/transport/rest"
	"surveyhub/internal/transport/ws"
	"surveyhub/pkg/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	var fileOpts *logger.FileOptions
	if cfg.LogFile != "" {
		fileOpts = &logger.FileOptions{Filename: cfg.LogFile}
	}
	lg, err := logger.New(cfg.LogLevel, fileOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		lg.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	lg.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		lg.Fatal("failed to ping Redis", zap.Error(err))
	}
	lg.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
	defer indexCancel()
	if err := surveyRepo.EnsureIndexes(indexCtx); err != nil {
		lg.Fatal("failed to create survey indexes", zap.Error(err))
	}
	if err := responseRepo.EnsureIndexes(indexCtx); err != nil {
		lg.Fatal("failed to create response indexes", zap.Error(err))
	}

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb, cfg.SessionTTL)
	surveyCache := cache.NewSurveyCache(rdb, cfg.SurveyCacheTTL)

	wsHub := ws.NewHub(lg)
	defer wsHub.Shutdown()

	// Initialize services
	norm := normalizer.New(normalizer.UUIDGenerator{})
	tokenSvc := service.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	surveySvc := service.NewSurveyService(surveyRepo, responseRepo, surveyCache, norm, lg)
	responseSvc := service.NewResponseService(surveySvc, responseRepo, lg)
	takeSvc := service.NewTakeService(surveySvc, sessionCache, responseSvc, tokenSvc, lg)
	resultsSvc := service.NewResultsService(surveySvc, responseRepo, cfg.Location(), lg)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	surveySvc.SetBroadcaster(wsHub)
	responseSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		SurveyService:  surveySvc,
		TakeService:    takeSvc,
		ResultsService: resultsSvc,
		TokenService:   tokenSvc,
		WSHub:          wsHub,
		CORSOrigins:    cfg.CORSOrigins,
		Logger:         lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server starting", zap.String("port", cfg.HTTPPort), zap.String("timezone", cfg.Location().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}

	lg.Info("server exited")
}
