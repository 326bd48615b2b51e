package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// LogSink только пишет событие в лог. Используется, когда транспорт не настроен.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, userID int64, n model.Notification) error {
	s.logger.Info("Notification",
		zap.Int64("user_id", userID),
		zap.String("type", string(n.Type)),
		zap.Int64("session_id", n.SessionID),
	)
	return nil
}

// MessageSender часть *bot.Bot, нужная для доставки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup находит Telegram-чат по внутреннему id пользователя
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramSink отправляет событие сообщением пользователям с привязанным Telegram
type TelegramSink struct {
	sender MessageSender
	users  UserLookup
}

func NewTelegramSink(sender MessageSender, users UserLookup) *TelegramSink {
	return &TelegramSink{sender: sender, users: users}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, userID int64, n model.Notification) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return retryable("get user", err)
	}
	// пользователь без Telegram - доставлять некуда
	if user == nil || user.TelegramID == nil {
		return nil
	}

	_, err = s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   Text(n),
	})
	return retryable("telegram send", err)
}

// Publisher часть *amqp.Channel, нужная для доставки
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQSink публикует JSON в topic exchange с routing key notification.<type>
type RabbitMQSink struct {
	publisher Publisher
	exchange  string
}

func NewRabbitMQSink(publisher Publisher, exchange string) *RabbitMQSink {
	return &RabbitMQSink{publisher: publisher, exchange: exchange}
}

func (s *RabbitMQSink) Name() string { return "rabbitmq" }

func (s *RabbitMQSink) Send(_ context.Context, userID int64, n model.Notification) error {
	body, err := json.Marshal(Message{UserID: userID, Notification: n})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = s.publisher.Publish(s.exchange, "notification."+string(n.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	return retryable("rabbitmq publish", err)
}

// RedisPublisher часть *redis.Client, нужная для доставки
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink публикует в канал пользователя user:<id> для живых клиентов
type RedisSink struct {
	client RedisPublisher
}

func NewRedisSink(client RedisPublisher) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, userID int64, n model.Notification) error {
	body, err := json.Marshal(Message{UserID: userID, Notification: n})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return retryable("redis publish", s.client.Publish(ctx, UserChannel(userID), body).Err())
}

func UserChannel(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
