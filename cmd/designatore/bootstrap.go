package main

import (
	"fmt"
	"strings"

	"github.com/bitfantasy/designatore/internal/config"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/bitfantasy/designatore/internal/shared/feishu"
	"github.com/bitfantasy/designatore/internal/shared/sse"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// app 进程内共享的依赖
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	redis    *redis.Client
	hub      *sse.Hub
	services *service.Services
	repos    *repository.Repositories
}

// bootstrap 加载配置并连接存储，调用方负责 close
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Sync()
		return nil, err
	}

	a := &app{cfg: cfg, logger: zapLogger, db: db}
	a.repos = repository.NewRepositories(db)
	a.hub = sse.NewHub(zapLogger, cfg.Notify.SSEBuffer)

	var locker service.Locker
	if cfg.Redis.Enabled {
		a.redis = initRedis(cfg.Redis)
		locker = service.NewRedisLocker(a.redis, cfg.Inventory.LockTTL)
		zapLogger.Info("Using redis ledger locks", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = service.NewLocalLocker()
	}

	notifiers := service.MultiNotifier{service.NewLogNotifier(zapLogger), a.hub}
	if cfg.Notify.FeishuWebhook != "" {
		notifiers = append(notifiers, feishu.NewBotClient(cfg.Notify.FeishuWebhook, cfg.Notify.FeishuSecret, zapLogger))
		zapLogger.Info("Feishu bot notifications enabled")
	}

	a.services = service.NewServices(a.repos, locker, notifiers, zapLogger, service.Options{
		DefaultThreshold: cfg.Inventory.DefaultThreshold,
		ReorderFactor:    cfg.Inventory.ReorderFactor,
	})
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	a.logger.Sync()
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		// 台账写入依赖外键与 WAL 并发
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.Path))
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
