package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/core/cache"
	"ausyexpo-backend/internal/core/config"
	"ausyexpo-backend/internal/core/database"
	"ausyexpo-backend/internal/core/logger"
	"ausyexpo-backend/internal/core/server"
	"ausyexpo-backend/internal/policy"
	"ausyexpo-backend/internal/repo"
	"ausyexpo-backend/internal/service"
	"ausyexpo-backend/internal/transport/http/handler"
	"ausyexpo-backend/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log)()

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// 缓存可选；连不上就退化为直接查库
	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			log.Warn("redis unavailable, cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
			c = nil
		}
		cancel()
	}
	if c != nil {
		defer c.Close()
	}

	// 依赖
	tokens := &auth.TokenService{
		Secret: []byte(cfg.Auth.Secret),
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenLifetime,
		Leeway: cfg.Auth.Leeway,
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	users := repo.NewUserRepo(db)
	authSvc := service.NewAuthService(users, hasher, tokens, log)
	userSvc := service.NewUserService(users, hasher, c, cfg.Redis.TTL, log)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userSvc.EnsureAdmin(seedCtx, cfg.Seed.Admin); err != nil {
		log.Fatal("seed admin failed", zap.Error(err))
	}
	cancelSeed()

	mods := &router.Registry{}
	mods.Register(
		handler.NewAuthHandler(authSvc, log),
		handler.NewUserHandler(userSvc, log),
	)

	r := router.NewAPIEngine(router.Deps{
		Log:     log,
		HTTP:    cfg.App.HTTP,
		Tokens:  tokens,
		Matrix:  policy.DefaultMatrix(),
		Modules: mods,
		Health:  pingDB(db),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+policy.APIPrefix),
		zap.Duration("token_lifetime", cfg.Auth.TokenLifetime),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("api stopped with error", zap.Error(err))
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(cfg.DB, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func pingDB(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
