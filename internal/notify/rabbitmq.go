package notify

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQ владеет соединением с брокером для RabbitMQSink
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	logger  *zap.Logger
}

// DialRabbitMQ подключается и объявляет durable topic exchange
func DialRabbitMQ(url, exchange string, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("exchange", exchange))

	return &RabbitMQ{Conn: conn, Channel: channel, logger: logger}, nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			r.logger.Error("Failed to close RabbitMQ channel", zap.Error(err))
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	r.logger.Info("RabbitMQ connection closed")
	return nil
}
