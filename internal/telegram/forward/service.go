package forward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forward_bot/internal/logger"
	"forward_bot/internal/telegram/chatref"
	"forward_bot/internal/telegram/models"
	"forward_bot/internal/telegram/repository"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
)

// copyRatePerSecond 进程级复制速率上限（Bot API 全局约 30 条/秒）
const copyRatePerSecond = 30

// Service 转发服务
// 持有启动时解析好的源/目标聊天和延迟配置，按 /forward 请求异步
// 执行引擎并汇报结果；并发运行共享同一个速率限制器。
type Service struct {
	source    chatref.Ref
	target    chatref.Ref
	baseDelay time.Duration
	failDelay time.Duration

	limiter *Limiter
	runs    repository.ForwardRunRepository // nil 表示历史功能禁用
}

// NewService 创建转发服务实例
// runs 可以为 nil（未配置 MongoDB 时历史功能禁用）。
func NewService(source, target chatref.Ref, baseDelay, failDelay time.Duration, runs repository.ForwardRunRepository) *Service {
	return &Service{
		source:    source,
		target:    target,
		baseDelay: baseDelay,
		failDelay: failDelay,
		limiter:   NewLimiter(copyRatePerSecond),
		runs:      runs,
	}
}

// Configured 源和目标聊天是否都已配置
func (s *Service) Configured() bool {
	return s.source.IsSet() && s.target.IsSet()
}

// Source 返回源聊天引用
func (s *Service) Source() chatref.Ref { return s.source }

// Target 返回目标聊天引用
func (s *Service) Target() chatref.Ref { return s.target }

// Start 启动一次区间转发运行
// 先在发起命令的聊天里宣告运行参数，再在后台 goroutine 中执行循环，
// 这样长区间运行期间用户仍然可以发其他命令。
func (s *Service) Start(ctx context.Context, botInstance *bot.Bot, replyChatID int64, requestedBy, startID, endID int64) error {
	if !s.Configured() {
		return ErrChatNotConfigured
	}

	announce := fmt.Sprintf(
		"Starting copyMessage…\nFrom: %s\nTo: %s\nRange: %d → %d\nDelay: %s",
		s.source, s.target, startID, endID, s.baseDelay,
	)
	if _, err := botInstance.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: replyChatID,
		Text:   announce,
	}); err != nil {
		logger.L().Errorf("Failed to announce forward run: %v", err)
	}

	// 异步执行；运行生命周期与命令处理解耦，进程退出才会取消
	go s.run(context.Background(), botInstance, replyChatID, requestedBy, startID, endID)

	return nil
}

// run 执行引擎循环并汇报/记录结果
func (s *Service) run(ctx context.Context, botInstance *bot.Bot, replyChatID int64, requestedBy, startID, endID int64) {
	runID := uuid.New().String()
	startedAt := time.Now()

	logger.L().Infof("Forward run started: run_id=%s range=%d..%d source=%s target=%s",
		runID, startID, endID, s.source, s.target)

	engine := NewEngine(s.copyFunc(botInstance))
	tally, err := engine.Run(ctx, Request{
		Source:    s.source,
		Target:    s.target,
		StartID:   startID,
		EndID:     endID,
		BaseDelay: s.baseDelay,
		FailDelay: s.failDelay,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.L().Errorf("Forward run aborted: run_id=%s err=%v", runID, err)
	}

	duration := time.Since(startedAt)
	logger.L().Infof("Forward run completed: run_id=%s success=%d failed=%d duration=%v",
		runID, tally.Succeeded, tally.Failed, duration)

	summary := fmt.Sprintf("Done.\nSuccess: %d\nFailed: %d", tally.Succeeded, tally.Failed)
	if _, err := botInstance.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: replyChatID,
		Text:   summary,
	}); err != nil {
		logger.L().Errorf("Failed to send forward summary: %v", err)
	}

	s.saveRun(ctx, runID, requestedBy, startID, endID, tally, startedAt)
}

// saveRun 写入运行历史（未配置仓储时跳过）
func (s *Service) saveRun(ctx context.Context, runID string, requestedBy, startID, endID int64, tally Tally, startedAt time.Time) {
	if s.runs == nil {
		return
	}

	if endID < startID {
		startID, endID = endID, startID
	}

	record := &models.ForwardRun{
		RunID:       runID,
		SourceChat:  s.source.String(),
		TargetChat:  s.target.String(),
		StartID:     startID,
		EndID:       endID,
		Succeeded:   int64(tally.Succeeded),
		Failed:      int64(tally.Failed),
		RequestedBy: requestedBy,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
	if err := s.runs.CreateRun(ctx, record); err != nil {
		logger.L().Errorf("Failed to save forward run %s: %v", runID, err)
	}
}

// copyFunc 把已认证的 Bot API 客户端包装成引擎的复制原语
func (s *Service) copyFunc(botInstance *bot.Bot) CopyFunc {
	return func(ctx context.Context, target, source chatref.Ref, messageID int64) error {
		// 先过进程级限速，再真正调用 copyMessage
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		_, err := botInstance.CopyMessage(ctx, &bot.CopyMessageParams{
			ChatID:     target.Value(),
			FromChatID: source.Value(),
			MessageID:  int(messageID),
		})
		return err
	}
}
