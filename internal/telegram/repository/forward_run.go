package repository

import (
	"context"
	"fmt"

	"forward_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 运行记录保留30天后由 TTL 索引自动清理
const runRetentionSeconds = 30 * 24 * 3600

// MongoForwardRunRepository ForwardRunRepository 的 MongoDB 实现
type MongoForwardRunRepository struct {
	collection *mongo.Collection
}

// NewForwardRunRepository 创建转发运行仓储实例
func NewForwardRunRepository(db *mongo.Database) *MongoForwardRunRepository {
	return &MongoForwardRunRepository{
		collection: db.Collection("forward_runs"),
	}
}

// CreateRun 写入一条运行记录
func (r *MongoForwardRunRepository) CreateRun(ctx context.Context, run *models.ForwardRun) error {
	_, err := r.collection.InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to create forward run: %w", err)
	}
	return nil
}

// ListRecentRuns 按结束时间倒序返回最近的运行记录
func (r *MongoForwardRunRepository) ListRecentRuns(ctx context.Context, limit int64) ([]*models.ForwardRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query forward runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*models.ForwardRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode forward runs: %w", err)
	}

	return runs, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoForwardRunRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// run_id 唯一索引
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// TTL 索引（30天自动删除）
		{
			Keys:    bson.D{{Key: "finished_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(runRetentionSeconds),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes for forward_runs: %w", err)
	}

	return nil
}
