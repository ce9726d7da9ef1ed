package forward

import (
	"context"
	"errors"
	"time"

	"forward_bot/internal/logger"
	"forward_bot/internal/telegram/chatref"
)

// rateLimitMargin 流控等待的安全余量，叠加在 retry_after 之上
const rateLimitMargin = time.Second

// ErrChatNotConfigured 源/目标聊天未配置，循环开始前即拒绝
var ErrChatNotConfigured = errors.New("source and target chats must both be configured")

// CopyFunc 注入的消息复制原语
// 由外部已认证的 Bot API 客户端提供，引擎不关心传输/鉴权细节。
type CopyFunc func(ctx context.Context, target, source chatref.Ref, messageID int64) error

// Request 一次区间转发请求，按次构建，不跨运行复用
type Request struct {
	Source    chatref.Ref
	Target    chatref.Ref
	StartID   int64
	EndID     int64
	BaseDelay time.Duration // 每次成功复制后的节流延迟
	FailDelay time.Duration // 每次失败后的延迟
}

// Tally 一次运行的成功/失败计数，循环内只增不减，结束时整体上报一次
type Tally struct {
	Succeeded uint64
	Failed    uint64
}

// Engine 区间转发引擎
// 严格按消息ID递增逐条复制：成功则节流，命中流控则等待 retry_after
// 后对同一ID最多重试一次，其余失败计数后继续。单条消息的失败永远
// 不会中止整个区间。
type Engine struct {
	copy CopyFunc

	// sleep 挂起当前运行而不阻塞其他并发工作；测试中可替换
	sleep func(ctx context.Context, d time.Duration)
}

// NewEngine 创建转发引擎
func NewEngine(copy CopyFunc) *Engine {
	return &Engine{
		copy:  copy,
		sleep: sleepCtx,
	}
}

// Run 执行 [StartID, EndID] 区间转发，返回累计计数
// 边界顺序颠倒时自动交换。除配置错误外不返回其他错误：所有单条
// 失败都包含在循环内，调用方只能通过计数区分结果。
func (e *Engine) Run(ctx context.Context, req Request) (Tally, error) {
	if !req.Source.IsSet() || !req.Target.IsSet() {
		return Tally{}, ErrChatNotConfigured
	}

	start, end := req.StartID, req.EndID
	if end < start {
		start, end = end, start
	}

	var tally Tally
	for id := start; id <= end; id++ {
		// 协作式取消：每轮检查一次，进程退出时停止
		if ctx.Err() != nil {
			logger.L().Warnf("Forward run canceled at message %d: %v", id, ctx.Err())
			return tally, ctx.Err()
		}

		outcome := Classify(e.copy(ctx, req.Target, req.Source, id))

		if outcome.Kind == OutcomeRateLimited {
			wait := outcome.RetryAfter + rateLimitMargin
			logger.L().Warnf("Flood control on message %d, waiting %v before retry", id, wait)
			e.sleep(ctx, wait)

			// 同一ID最多重试一次；重试再失败（含再次流控）走统一失败路径
			outcome = Classify(e.copy(ctx, req.Target, req.Source, id))
		}

		if outcome.Kind == OutcomeCopied {
			tally.Succeeded++
			e.sleep(ctx, req.BaseDelay)
			continue
		}

		tally.Failed++
		if hint := Hint(outcome.Err); hint != "" {
			logger.L().Warnf("Failed to copy message %d: %v (%s)", id, outcome.Err, hint)
		} else {
			logger.L().Warnf("Failed to copy message %d: %v", id, outcome.Err)
		}
		e.sleep(ctx, req.FailDelay)
	}

	return tally, nil
}

// sleepCtx 可被上下文取消的延迟
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
