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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/api/handler"
	"github.com/xela07ax/vizitka-api/internal/api/server"
	"github.com/xela07ax/vizitka-api/internal/api/service"
	"github.com/xela07ax/vizitka-api/internal/audit"
	"github.com/xela07ax/vizitka-api/internal/cache"
	"github.com/xela07ax/vizitka-api/internal/infra"
	"github.com/xela07ax/vizitka-api/internal/infra/auth"
	"github.com/xela07ax/vizitka-api/internal/repository/postgres"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Ключевой материал (RS256)
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("Failed to parse public key", zap.Error(err))
	}
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("Failed to parse private key", zap.Error(err))
	}
	validator := auth.NewBaseValidator(publicKey)

	// 3. Ресурсы: Postgres (с retry внутри) и Redis
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	repo, err := postgres.NewRepo(ctx, cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Fatal("Database unreachable", zap.Error(err))
	}
	defer repo.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	images := cache.NewImageCache(rdb, cfg.Redis.ImageTTL, logger)

	// 4. Журнал решений авторизации (батчи в Postgres)
	trail := audit.NewTrail(repo, logger, cfg.Audit.BufferSize, cfg.Audit.FlushInterval)
	trail.Start()

	// 5. Сервисы и обработчики (Dependency Injection)
	authService := service.NewAuthService(
		repo,
		privateKey,
		cfg.Auth.TokenTTL,
		cfg.Auth.BcryptCost,
		cfg.Auth.AdminSecret,
		trail,
		logger,
	)
	cardService := service.NewCardService(repo, repo, images, trail, logger)
	userService := service.NewUserService(repo, trail, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	cardHandler := handler.NewCardHandler(cardService, cfg.Limits.MaxUploadBytes, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	reg := prometheus.NewRegistry()
	apiServer := server.NewServer(cfg, logger, validator, repo, reg, authHandler, cardHandler, userHandler)

	// 6. HTTP-сервер и Graceful Shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Дожимаем буфер аудита до выхода
	trail.Stop()
	logger.Info("API exited properly")
}
