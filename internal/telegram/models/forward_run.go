package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForwardRun 一次区间转发运行的历史记录（用于 /history）
type ForwardRun struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RunID       string             `bson:"run_id"`       // 运行ID (UUID)
	SourceChat  string             `bson:"source_chat"`  // 源聊天标识
	TargetChat  string             `bson:"target_chat"`  // 目标聊天标识
	StartID     int64              `bson:"start_id"`     // 区间起始消息ID（归一化后）
	EndID       int64              `bson:"end_id"`       // 区间结束消息ID（归一化后）
	Succeeded   int64              `bson:"succeeded"`    // 成功条数
	Failed      int64              `bson:"failed"`       // 失败条数
	RequestedBy int64              `bson:"requested_by"` // 发起命令的用户ID
	StartedAt   time.Time          `bson:"started_at"`   // 开始时间
	FinishedAt  time.Time          `bson:"finished_at"`  // 结束时间（TTL索引）
}
