package forward

import (
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
)

// OutcomeKind 单次复制尝试的结果分类
type OutcomeKind int

const (
	OutcomeCopied           OutcomeKind = iota // 复制成功
	OutcomeRateLimited                         // 命中流控，带 retry_after 建议等待时长
	OutcomePermanentReject                     // 确定性拒绝（消息不存在/无权限/聊天不存在）
	OutcomeTransientFailure                    // 网络等瞬时故障，不带 retry_after 提示
)

// Outcome 一次复制尝试的结果，用于驱动重试/计数策略
// 分类只影响日志诊断和是否进行流控重试，其余结果的控制流完全一致。
type Outcome struct {
	Kind       OutcomeKind
	RetryAfter time.Duration // 仅 OutcomeRateLimited 有效
	Err        error         // 原始错误（成功时为 nil）
}

// Classify 将复制原语返回的错误映射为 Outcome
// 基于 go-telegram/bot 的类型化错误；未知错误一律视为瞬时故障。
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeCopied}
	}

	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return Outcome{
			Kind:       OutcomeRateLimited,
			RetryAfter: time.Duration(tooMany.RetryAfter) * time.Second,
			Err:        err,
		}
	}

	var migrate *bot.MigrateError
	if errors.As(err, &migrate) ||
		errors.Is(err, bot.ErrorBadRequest) ||
		errors.Is(err, bot.ErrorForbidden) ||
		errors.Is(err, bot.ErrorUnauthorized) ||
		errors.Is(err, bot.ErrorNotFound) {
		return Outcome{Kind: OutcomePermanentReject, Err: err}
	}

	return Outcome{Kind: OutcomeTransientFailure, Err: err}
}

// Hint 针对常见的配置类错误给出排障提示
// 仅用于日志和 /test 输出，不参与控制流；没有可用提示时返回空串。
func Hint(err error) string {
	if err == nil {
		return ""
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "chat not found"):
		return "TARGET_CHAT_ID is wrong or the bot is not in that chat"
	case strings.Contains(text, "not enough rights"), strings.Contains(text, "administrator"):
		return "for channels the bot must be ADMIN; for groups allow posting"
	case strings.Contains(text, "message to copy not found"):
		return "message does not exist at the source"
	}
	return ""
}
