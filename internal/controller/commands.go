package controller

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const upcomingLimit = 10

// handleStart регистрирует пользователя по Telegram ID
func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From

	user, err := c.users.RegisterTelegramUser(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		c.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	c.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText(user))
}

func (c *BotController) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

func (c *BotController) handleBecomeTutor(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := c.requireUser(ctx, b, update)
	if !ok {
		return
	}

	profile, err := c.tutors.BecomeTutor(ctx, user.ID, "", nil)
	if err != nil {
		c.logger.Error("Failed to become tutor", zap.Int64("user_id", user.ID), zap.Error(err))
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Не удалось создать профиль репетитора.")
		return
	}

	c.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🎓 Профиль репетитора #%d готов.\n\nСоздавайте слоты через API: POST /slots/create", profile.ID))
}

func (c *BotController) handleMySessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := c.requireUser(ctx, b, update)
	if !ok {
		return
	}

	sessions, err := c.sessions.Upcoming(ctx, user.ID, upcomingLimit)
	if err != nil {
		c.logger.Error("Failed to list sessions", zap.Int64("user_id", user.ID), zap.Error(err))
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	c.sendMessage(ctx, b, update.Message.Chat.ID, formatSessionList(user.ID, sessions))
}

// handleToken выдаёт access-токен для REST API
func (c *BotController) handleToken(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := c.requireUser(ctx, b, update)
	if !ok {
		return
	}

	tok, expiresAt, err := c.tokens.Sign(token.Claims{UserID: user.ID, Purpose: token.PurposeAccess}, c.tokenTTL)
	if err != nil {
		c.logger.Error("Failed to sign access token", zap.Int64("user_id", user.ID), zap.Error(err))
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Не удалось выпустить токен.")
		return
	}

	c.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🔑 Ваш токен (действует до %s):\n\n%s", formatDateTime(expiresAt), tok))
}

// requireUser проверяет что пользователь зарегистрирован
func (c *BotController) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}
	if user == nil {
		c.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	return user, true
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
