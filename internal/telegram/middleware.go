package telegram

import (
	"context"

	"forward_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// RequireOwner 中间件：仅允许配置的 owner 执行
// 未配置 BOT_OWNER_IDS 时不做限制（与原始单用户部署行为一致）。
func (b *Bot) RequireOwner(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		if !b.isOwner(update.Message.From.ID) {
			logger.L().Warnf("Non-owner user %d attempted to use owner command", update.Message.From.ID)
			b.sendErrorMessage(ctx, update.Message.Chat.ID, "This command is restricted to the bot owner.")
			return
		}

		next(ctx, botInstance, update)
	}
}

// isOwner 用户是否允许执行受限命令
func (b *Bot) isOwner(userID int64) bool {
	if len(b.ownerIDs) == 0 {
		return true
	}
	for _, id := range b.ownerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
