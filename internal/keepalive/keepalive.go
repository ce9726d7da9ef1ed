package keepalive

import (
	"fmt"
	"net/http"
	"time"

	"forward_bot/internal/logger"

	"github.com/robfig/cron/v3"
)

// Pinger 周期性访问 keep-alive URL，防止免费托管实例休眠
// 与转发运行完全独立，不共享任何状态。
type Pinger struct {
	url      string
	interval time.Duration
	cron     *cron.Cron
	client   *http.Client
}

// New 创建 keep-alive pinger
// url 为空时 Start 直接跳过（功能禁用）。
func New(url string, interval time.Duration) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Start 启动周期性 ping（非阻塞）
func (p *Pinger) Start() error {
	if p.url == "" {
		logger.L().Info("Keep-alive pinger disabled (PING_URL not set)")
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := c.AddFunc(spec, p.ping); err != nil {
		return fmt.Errorf("failed to schedule keep-alive ping: %w", err)
	}

	p.cron = c
	c.Start()

	// @every 首次触发要等一个完整间隔，启动时先 ping 一次
	go p.ping()

	logger.L().Infof("Keep-alive pinger started: url=%s interval=%s", p.url, p.interval)
	return nil
}

// Stop 停止周期性 ping
func (p *Pinger) Stop() {
	if p.cron != nil {
		p.cron.Stop()
	}
}

// ping 执行一次探活请求
func (p *Pinger) ping() {
	resp, err := p.client.Get(p.url)
	if err != nil {
		logger.L().Warnf("Ping %s failed: %v", p.url, err)
		return
	}
	defer resp.Body.Close()

	logger.L().Infof("Ping %s -> %d", p.url, resp.StatusCode)
}
