package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// AccessTokenIssuer выпускает bearer-токены для REST API
type AccessTokenIssuer interface {
	Sign(claims token.Claims, ttl time.Duration) (string, time.Time, error)
}

type BotController struct {
	bot      *bot.Bot
	users    *service.UserService
	tutors   *service.TutorService
	sessions *service.SessionService
	tokens   AccessTokenIssuer
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	users *service.UserService,
	tutors *service.TutorService,
	sessions *service.SessionService,
	tokens AccessTokenIssuer,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		users:    users,
		tutors:   tutors,
		sessions: sessions,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/token", bot.MatchTypeExact, c.handleToken)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mysessions", bot.MatchTypeExact, c.handleMySessions)

	// Команды для репетиторов
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becometutor", bot.MatchTypeExact, c.handleBecomeTutor)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "mysessions", Description: "📅 Ближайшие занятия"},
		{Command: "token", Description: "🔑 Токен для API"},
		{Command: "becometutor", Description: "🎓 Стать репетитором"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
