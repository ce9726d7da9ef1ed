package repository

import (
	"context"

	"forward_bot/internal/telegram/models"
)

// ForwardRunRepository 转发运行历史仓储
type ForwardRunRepository interface {
	// CreateRun 写入一条运行记录
	CreateRun(ctx context.Context, run *models.ForwardRun) error
	// ListRecentRuns 按结束时间倒序返回最近的运行记录
	ListRecentRuns(ctx context.Context, limit int64) ([]*models.ForwardRun, error)
	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}
