// Package telegram runs the advisor as a Telegram bot, keeping one
// conversation history per chat.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/httpapi"
	"github.com/meilian-ai/advisor/internal/logger"
)

const welcomeText = "👋 您好！我是您的医美顾问助手。\n" +
	"告诉我您的年龄、预算、想改善的部位和具体需求，我会为您推荐合适的项目。\n\n" +
	"命令:\n/help - 查看帮助\n/reset - 清空对话记录"

const helpText = "可用命令:\n/start - 开始或重新开始对话\n/help - 查看帮助\n/reset - 清空对话记录"

// Bot bridges Telegram chats to the conversation orchestrator.
type Bot struct {
	bot      *bot.Bot
	advisor  httpapi.TurnHandler
	sessions map[int64][]core.Message
	mutex    sync.RWMutex
}

// NewBot creates a bot over the given advisor.
func NewBot(token string, advisor httpapi.TurnHandler) (*Bot, error) {
	b := &Bot{
		advisor:  advisor,
		sessions: make(map[int64][]core.Message),
	}

	botAPI, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("telegram: initialize bot: %w", err)
	}
	b.bot = botAPI
	return b, nil
}

// Start runs the update loop until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	logger.Info("Telegram bot started")
	b.bot.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		b.handleCommand(ctx, update.Message)
		return
	}
	b.handleTextMessage(ctx, update.Message)
}

func (b *Bot) handleCommand(ctx context.Context, message *models.Message) {
	command := strings.TrimPrefix(strings.Split(message.Text, " ")[0], "/")
	chatID := message.Chat.ID
	logger.Info("Chat[%d]: Received command /%s", chatID, command)

	switch command {
	case "start":
		b.resetSession(chatID)
		b.send(ctx, chatID, welcomeText)

	case "help":
		b.send(ctx, chatID, helpText)

	case "reset":
		b.resetSession(chatID)
		b.send(ctx, chatID, "✅ 对话记录已清空，我们重新开始吧。")

	default:
		b.send(ctx, chatID, "未知命令，输入 /help 查看可用命令。")
	}
}

func (b *Bot) handleTextMessage(ctx context.Context, message *models.Message) {
	chatID := message.Chat.ID
	logger.Debug("Chat[%d]: %s", chatID, message.Text)

	b.mutex.Lock()
	b.sessions[chatID] = append(b.sessions[chatID], core.Message{
		Role:    core.RoleUser,
		Content: message.Text,
	})
	history := append([]core.Message(nil), b.sessions[chatID]...)
	b.mutex.Unlock()

	done := make(chan struct{})
	go b.sendTypingAction(ctx, chatID, done)

	result := b.advisor.Turn(ctx, history)
	close(done)

	reply := result.Text
	if result.IsRecommendation && result.Data != nil {
		reply = formatRecommendation(result.Data)
	}

	b.mutex.Lock()
	b.sessions[chatID] = append(b.sessions[chatID], core.Message{
		Role:    core.RoleAssistant,
		Content: reply,
	})
	b.mutex.Unlock()

	b.send(ctx, chatID, reply)
}

func (b *Bot) resetSession(chatID int64) {
	b.mutex.Lock()
	b.sessions[chatID] = nil
	b.mutex.Unlock()
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("Chat[%d]: Send message: %v", chatID, err)
	}
}

// sendTypingAction keeps the typing indicator alive until done closes.
// Telegram shows it for about five seconds per call.
func (b *Bot) sendTypingAction(ctx context.Context, chatID int64, done chan struct{}) {
	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	b.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.bot.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: chatID,
				Action: models.ChatActionTyping,
			})
		}
	}
}

// formatRecommendation renders a recommendation payload as chat text.
func formatRecommendation(rec *core.Recommendation) string {
	if rec.IsError() {
		return rec.Err
	}
	return fmt.Sprintf("为您推荐: %s\n参考价格: %g元\n推荐理由: %s", rec.Name, rec.Price, rec.Reason)
}
