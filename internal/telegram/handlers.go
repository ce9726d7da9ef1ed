package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"forward_bot/internal/logger"
	"forward_bot/internal/telegram/forward"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// registerHandlers 注册所有命令处理器（异步执行）
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact,
		b.asyncHandler(b.handleStart))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chatid", bot.MatchTypeExact,
		b.asyncHandler(b.handleChatID))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/test", bot.MatchTypeExact,
		b.asyncHandler(b.handleTest))
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact,
		b.asyncHandler(b.handleHistory))

	// 受限命令（仅 Owner，未配置 owner 时不限制）
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/forward", bot.MatchTypePrefix,
		b.asyncHandler(b.RequireOwner(b.handleForward)))

	logger.L().Debug("All handlers registered with async execution")
}

// handleStart 处理 /start 命令
func (b *Bot) handleStart(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	text := "Forwarder bot ready ✅\n\n" +
		"Commands:\n" +
		"/chatid - show this chat id\n" +
		"/test - test access to source/target\n" +
		"/forward &lt;start_id&gt; &lt;end_id&gt;\n" +
		"/history - recent forward runs\n\n" +
		"Example:\n" +
		"/forward 120 135"

	b.sendMessage(ctx, update.Message.Chat.ID, text)
}

// handleChatID 处理 /chatid 命令
func (b *Bot) handleChatID(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID,
		fmt.Sprintf("chat_id = <code>%d</code>", update.Message.Chat.ID))
}

// handleTest 处理 /test 命令：验证源/目标聊天可达
func (b *Bot) handleTest(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if !b.forwardSvc.Configured() {
		b.sendErrorMessage(ctx, chatID,
			"Missing SOURCE_CHAT_ID / TARGET_CHAT_ID environment variables.")
		return
	}

	b.sendMessage(ctx, chatID, fmt.Sprintf(
		"Env looks set ✅\nSOURCE_CHAT_ID = %s\nTARGET_CHAT_ID = %s\n\nNow testing access...",
		b.forwardSvc.Source(), b.forwardSvc.Target()))

	// 测试1：向目标聊天发送消息
	_, err := botInstance.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: b.forwardSvc.Target().Value(),
		Text:   "✅ Test: I can send to TARGET_CHAT_ID",
	})
	if err != nil {
		msg := fmt.Sprintf("Cannot send to TARGET_CHAT_ID.\nError: %v", err)
		if hint := forward.Hint(err); hint != "" {
			msg += "\n\nFix: " + hint
		}
		b.sendErrorMessage(ctx, chatID, msg)
		return
	}

	// 测试2：读取源聊天信息
	chat, err := botInstance.GetChat(ctx, &bot.GetChatParams{
		ChatID: b.forwardSvc.Source().Value(),
	})
	if err != nil {
		msg := fmt.Sprintf(
			"Cannot access SOURCE_CHAT_ID.\nMake sure:\n"+
				"1) bot is added to that group/channel\n"+
				"2) channel: bot must be admin\n\nError: %v", err)
		b.sendErrorMessage(ctx, chatID, msg)
		return
	}

	sourceName := chat.Title
	if sourceName == "" {
		sourceName = strconv.FormatInt(chat.ID, 10)
	}
	b.sendSuccessMessage(ctx, chatID, "Can access SOURCE chat: "+sourceName)
	b.sendSuccessMessage(ctx, chatID, "Test complete. You can try /forward now.")
}

// handleForward 处理 /forward <start_id> <end_id> 命令
func (b *Bot) handleForward(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	logger.L().Infof("Received /forward from %d in chat %d: %q",
		update.Message.From.ID, chatID, update.Message.Text)

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 3 {
		b.sendMessage(ctx, chatID, "Usage: /forward &lt;start_id&gt; &lt;end_id&gt;")
		return
	}

	startID, err1 := strconv.ParseInt(parts[1], 10, 64)
	endID, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		b.sendErrorMessage(ctx, chatID, "start_id and end_id must be integers.")
		return
	}
	if startID <= 0 || endID <= 0 {
		b.sendErrorMessage(ctx, chatID, "start_id and end_id must be positive.")
		return
	}

	if err := b.forwardSvc.Start(ctx, botInstance, chatID, update.Message.From.ID, startID, endID); err != nil {
		b.sendErrorMessage(ctx, chatID, "SOURCE_CHAT_ID / TARGET_CHAT_ID not set.")
		return
	}
}

// handleHistory 处理 /history 命令：展示最近的转发运行
func (b *Bot) handleHistory(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if b.runRepo == nil {
		b.sendMessage(ctx, chatID, "Forward history is disabled (MONGO_URI not set).")
		return
	}

	runs, err := b.runRepo.ListRecentRuns(ctx, 10)
	if err != nil {
		logger.L().Errorf("Failed to list forward runs: %v", err)
		b.sendErrorMessage(ctx, chatID, "Failed to load forward history, please try again later.")
		return
	}

	if len(runs) == 0 {
		b.sendMessage(ctx, chatID, "No forward runs recorded yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Recent forward runs:\n")
	for i, run := range runs {
		sb.WriteString(fmt.Sprintf("%d. [%d..%d] success %d, failed %d — %s\n",
			i+1, run.StartID, run.EndID, run.Succeeded, run.Failed,
			run.FinishedAt.Format(time.DateTime)))
	}
	b.sendMessage(ctx, chatID, sb.String())
}
