package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story4u-backend/auth"
	"story4u-backend/cache"
	"story4u-backend/config"
	"story4u-backend/database"
	"story4u-backend/handlers"
	"story4u-backend/logger"
	"story4u-backend/metrics"
	"story4u-backend/repository"
	"story4u-backend/routes"
	"story4u-backend/service"
	"story4u-backend/storage"
	"story4u-backend/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		// 日志尚未初始化
		zap.NewExample().Fatal("加载配置失败", zap.Error(err))
	}

	log := logger.NewStdout(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("无法初始化数据库", zap.Error(err))
	}
	log.Info("数据库连接初始化成功", zap.String("driver", cfg.DBDriver))

	// Redis可选：不可用时退化为进程内的限流存储和锁
	var (
		store  cache.WindowStore
		locker cache.Locker
	)
	rdb, err := cache.NewRedis(ctx, cfg, log)
	switch {
	case err == nil:
		locker = cache.NewLockService(rdb)
		if cfg.RateLimitStore == "redis" {
			store = cache.NewRedisWindowStore(rdb)
		}
	case errors.Is(err, cache.ErrRedisNotAvailable):
		log.Info("未配置Redis，使用进程内锁")
	default:
		log.Warn("Redis初始化失败，使用进程内锁", zap.Error(err))
	}
	if locker == nil {
		locker = cache.NewLocalLockService()
	}
	if store == nil {
		if cfg.RateLimitStore == "redis" {
			log.Warn("Redis不可用，限流改用内存存储")
		}
		mem := cache.NewMemoryWindowStore()
		mem.StartJanitor(ctx, janitorInterval)
		store = mem
	}

	files, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal("无法初始化上传目录", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)
	hub := websocket.NewHub(log.Named("hub"))
	go hub.Run(ctx)

	deps := handlers.Deps{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Tokens:  tokens,
		Users:   service.NewUserService(repository.NewUserRepository(db), tokens, locker, log.Named("users")),
		Gifs:    service.NewGifService(repository.NewGifRepository(db)),
		Posts:   service.NewPostService(repository.NewPostRepository(db)),
		Surveys: service.NewSurveyService(repository.NewSurveyRepository(db)),
		Limiter: cache.NewWindowRateLimiter(store, cache.DefaultRules()),
		Files:   files,
		Hub:     hub,
		Metrics: metrics.New(),
	}

	router := routes.SetupRouter(deps)
	srv := routes.StartServer(router, cfg.ServerPort, log)

	<-ctx.Done()
	log.Info("关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 不接受新请求并等待现有请求完成
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("服务器强制关闭", zap.Error(err))
	}

	database.Close(db, log)
	cache.CloseRedis(rdb, log)
	log.Info("服务器优雅关闭")
}
