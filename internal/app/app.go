package app

import (
	"context"
	"fmt"

	"forward_bot/internal/config"
	"forward_bot/internal/health"
	"forward_bot/internal/keepalive"
	"forward_bot/internal/logger"
	"forward_bot/internal/mongo"
	"forward_bot/internal/telegram"
	"forward_bot/internal/telegram/repository"
)

// App 应用服务容器
// 负责管理所有服务的生命周期（初始化、运行、关闭）
type App struct {
	MongoDB  *mongo.Client // nil 表示历史功能禁用
	Telegram *telegram.Bot
	Health   *health.Server
	Pinger   *keepalive.Pinger
}

// New 初始化应用及其所有服务
// MongoDB 是可选依赖：连接失败只禁用 /history，不阻止 Bot 启动。
func New(cfg *config.Config) (*App, error) {
	app := &App{}

	// 初始化 MongoDB（可选）
	var runRepo repository.ForwardRunRepository
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.NewClient(mongo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDBName,
		})
		if err != nil {
			logger.L().Warnf("MongoDB unavailable, forward history disabled: %v", err)
		} else {
			app.MongoDB = mongoClient
			repo := repository.NewForwardRunRepository(mongoClient.Database())
			if err := repo.EnsureIndexes(context.Background()); err != nil {
				logger.L().Warnf("Failed to ensure forward_runs indexes: %v", err)
			}
			runRepo = repo
			logger.L().Info("MongoDB initialized successfully")
		}
	} else {
		logger.L().Info("MONGO_URI not set, forward history disabled")
	}

	// 初始化 Telegram Bot
	telegramBot, err := telegram.InitFromConfig(cfg, runRepo)
	if err != nil {
		_ = app.Close(context.Background())
		return nil, fmt.Errorf("init Telegram bot failed: %w", err)
	}
	app.Telegram = telegramBot

	// 健康检查与 keep-alive
	app.Health = health.New(cfg.Port)
	app.Pinger = keepalive.New(cfg.PingURL, cfg.PingInterval)

	return app, nil
}

// Run 启动所有服务并阻塞到上下文取消
func (a *App) Run(ctx context.Context) error {
	a.Health.Start()
	if err := a.Pinger.Start(); err != nil {
		return err
	}

	// 长轮询，阻塞直到 ctx 取消
	return a.Telegram.Start(ctx)
}

// Close 优雅关闭所有服务
// 应该在应用退出时调用，确保资源正确释放
func (a *App) Close(ctx context.Context) error {
	if a.Pinger != nil {
		a.Pinger.Stop()
	}

	if a.Health != nil {
		if err := a.Health.Shutdown(ctx); err != nil {
			logger.L().Warnf("Health server shutdown: %v", err)
		}
	}

	if a.Telegram != nil {
		if err := a.Telegram.Stop(ctx); err != nil {
			logger.L().Warnf("Telegram bot shutdown: %v", err)
		}
	}

	if a.MongoDB != nil {
		if err := a.MongoDB.Close(ctx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	return nil
}
