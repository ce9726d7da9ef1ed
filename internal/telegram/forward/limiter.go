package forward

import (
	"context"
	"time"
)

// Limiter Token Bucket 速率限制器
// 进程级共享：并发的多个转发运行竞争同一份 Bot API 速率预算，
// 这里先在客户端侧兜底，Telegram 自身的流控仍是最终仲裁者。
type Limiter struct {
	tokens   chan struct{} // 令牌桶
	stopCh   chan struct{} // 停止信号
	interval time.Duration // 令牌补充间隔
}

// NewLimiter 创建速率限制器
// ratePerSecond: 每秒允许的复制请求数
func NewLimiter(ratePerSecond int) *Limiter {
	l := &Limiter{
		tokens:   make(chan struct{}, ratePerSecond),
		stopCh:   make(chan struct{}),
		interval: time.Second / time.Duration(ratePerSecond),
	}

	// 初始填满令牌桶
	for i := 0; i < ratePerSecond; i++ {
		l.tokens <- struct{}{}
	}

	go l.refill()

	return l
}

// Wait 阻塞直到取得令牌或上下文取消
func (l *Limiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.tokens:
		return nil
	}
}

// refill 定时补充令牌
func (l *Limiter) refill() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			select {
			case l.tokens <- struct{}{}:
			default:
				// 桶已满，跳过
			}
		}
	}
}

// Close 关闭速率限制器
func (l *Limiter) Close() {
	close(l.stopCh)
}
