package telegram

import (
	"context"
	"fmt"
	"time"

	"forward_bot/internal/config"
	"forward_bot/internal/logger"
	"forward_bot/internal/telegram/chatref"
	"forward_bot/internal/telegram/forward"
	"forward_bot/internal/telegram/repository"

	"github.com/go-telegram/bot"
)

// Config Telegram Bot 配置
type Config struct {
	Token     string        // Bot Token
	OwnerIDs  []int64       // 允许执行 /forward 的用户 IDs（为空则不限制）
	Source    chatref.Ref   // 源聊天（启动时解析一次）
	Target    chatref.Ref   // 目标聊天（启动时解析一次）
	BaseDelay time.Duration // 成功复制后的节流延迟
	FailDelay time.Duration // 失败后的延迟
	Debug     bool          // 是否开启调试模式
}

// Bot Telegram Bot 服务
type Bot struct {
	bot        *bot.Bot
	ownerIDs   []int64
	forwardSvc *forward.Service
	runRepo    repository.ForwardRunRepository // nil 表示历史功能禁用
	pool       *WorkerPool
}

// New 创建 Telegram Bot 实例
// runRepo 可以为 nil（未配置 MongoDB 时 /history 返回提示）。
func New(cfg Config, runRepo repository.ForwardRunRepository) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}

	opts := []bot.Option{}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	b, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	telegramBot := &Bot{
		bot:        b,
		ownerIDs:   cfg.OwnerIDs,
		forwardSvc: forward.NewService(cfg.Source, cfg.Target, cfg.BaseDelay, cfg.FailDelay, runRepo),
		runRepo:    runRepo,
		pool:       NewWorkerPool(4, 32),
	}

	telegramBot.registerHandlers()

	if !telegramBot.forwardSvc.Configured() {
		logger.L().Warn("SOURCE_CHAT_ID / TARGET_CHAT_ID not set, /forward will be rejected until configured")
	}

	logger.L().Info("Telegram bot initialized successfully")
	return telegramBot, nil
}

// InitFromConfig 从应用配置初始化 Telegram Bot
func InitFromConfig(cfg *config.Config, runRepo repository.ForwardRunRepository) (*Bot, error) {
	telegramCfg := Config{
		Token:     cfg.TelegramToken,
		OwnerIDs:  cfg.BotOwnerIDs,
		Source:    chatref.Parse(cfg.SourceChat),
		Target:    chatref.Parse(cfg.TargetChat),
		BaseDelay: cfg.BaseDelay,
		FailDelay: cfg.FailDelay,
	}
	return New(telegramCfg, runRepo)
}

// Start 启动 Bot（阻塞式，长轮询直到上下文取消）
func (b *Bot) Start(ctx context.Context) error {
	logger.L().Info("Starting Telegram bot... (polling enabled)")
	b.bot.Start(ctx)
	logger.L().Info("Telegram bot stopped")
	return nil
}

// Stop 停止 Bot 并等待在途 handler 完成
func (b *Bot) Stop(ctx context.Context) error {
	logger.L().Info("Stopping Telegram bot...")
	b.pool.Shutdown()
	return nil
}
