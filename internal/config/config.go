package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
// 进程启动时构建一次，之后只读；转发引擎自身不读取任何环境变量
type Config struct {
	TelegramToken string  // Telegram Bot API Token
	BotOwnerIDs   []int64 // 允许执行 /forward 的用户ID列表（为空则不限制）

	SourceChat string // 源聊天标识（数字ID或 @handle，原始字符串）
	TargetChat string // 目标聊天标识（数字ID或 @handle，原始字符串）

	BaseDelay time.Duration // 每条消息复制成功后的节流延迟
	FailDelay time.Duration // 复制失败后的延迟

	PingURL      string        // keep-alive 自检URL（为空则禁用）
	PingInterval time.Duration // keep-alive 间隔

	Port int // 健康检查 HTTP 端口

	MongoURI    string // MongoDB 连接URI（为空则禁用转发历史）
	MongoDBName string // MongoDB 数据库名称
}

// Load 从环境变量加载配置
// 当前目录存在 .env 时先加载它（已设置的环境变量优先）
func Load() (*Config, error) {
	// .env 仅用于本地开发，缺失不算错误
	_ = godotenv.Load()

	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "forward_bot"
	}

	cfg := &Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		SourceChat:    strings.TrimSpace(os.Getenv("SOURCE_CHAT_ID")),
		TargetChat:    strings.TrimSpace(os.Getenv("TARGET_CHAT_ID")),
		PingURL:       strings.TrimSpace(os.Getenv("PING_URL")),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDBName:   mongoDBName,
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	// 解析BOT_OWNER_IDS
	ownerIDsStr := os.Getenv("BOT_OWNER_IDS")
	if ownerIDsStr != "" {
		var err error
		cfg.BotOwnerIDs, err = parseOwnerIDs(ownerIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_OWNER_IDS: %w", err)
		}
	}

	// 解析BASE_DELAY / FAIL_DELAY（秒，支持小数，默认 0.9 / 1.7）
	var err error
	cfg.BaseDelay, err = parseSecondsEnv("BASE_DELAY", 900*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.FailDelay, err = parseSecondsEnv("FAIL_DELAY", 1700*time.Millisecond)
	if err != nil {
		return nil, err
	}

	// 解析PING_EVERY_SECONDS（默认180秒）
	cfg.PingInterval, err = parseSecondsEnv("PING_EVERY_SECONDS", 180*time.Second)
	if err != nil {
		return nil, err
	}

	// 解析PORT（默认3000）
	portStr := os.Getenv("PORT")
	if portStr == "" {
		cfg.Port = 3000
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PORT: %w", err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("PORT must be in 1..65535, got %d", port)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// parseOwnerIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseOwnerIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// parseSecondsEnv 解析以秒为单位的环境变量（支持 "0.9" 这类小数）
func parseSecondsEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("%s must be >= 0, got %s", name, raw)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
