// Package notify доставляет события сессий пользователям, не блокируя вызывающего.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Sink один канал доставки. Ошибки, обёрнутые в retry.RetryableError, повторяются.
type Sink interface {
	Name() string
	Send(ctx context.Context, userID int64, n model.Notification) error
}

type job struct {
	userID int64
	n      model.Notification
}

// Dispatcher ставит уведомления в очередь и рассылает по всем sink из фонового воркера.
// При переполненной очереди событие отбрасывается с предупреждением.
type Dispatcher struct {
	queue       chan job
	sinks       []Sink
	maxRetries  uint64
	baseBackoff time.Duration
	sendTimeout time.Duration
	logger      *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type Options struct {
	QueueSize   int
	MaxRetries  int
	BaseBackoff time.Duration
	SendTimeout time.Duration
}

func NewDispatcher(opts Options, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 200 * time.Millisecond
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}

	return &Dispatcher{
		queue:       make(chan job, opts.QueueSize),
		sinks:       sinks,
		maxRetries:  uint64(opts.MaxRetries),
		baseBackoff: opts.BaseBackoff,
		sendTimeout: opts.SendTimeout,
		logger:      logger,
	}
}

// Notify никогда не блокируется
func (d *Dispatcher) Notify(userID int64, n model.Notification) {
	select {
	case d.queue <- job{userID: userID, n: n}:
	default:
		d.logger.Warn("Notification queue is full, dropping event",
			zap.Int64("user_id", userID),
			zap.String("type", string(n.Type)),
			zap.Int64("session_id", n.SessionID),
		)
	}
}

// Start запускает воркер доставки
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher", zap.Int("sinks", len(d.sinks)))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for j := range d.queue {
			d.deliver(ctx, j)
		}
	}()
}

// Stop закрывает очередь и ждёт доставки уже поставленных событий
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped")
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	for _, sink := range d.sinks {
		backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(d.baseBackoff))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()
			return sink.Send(sendCtx, j.userID, j.n)
		})
		if err != nil {
			d.logger.Warn("Failed to deliver notification",
				zap.String("sink", sink.Name()),
				zap.Int64("user_id", j.userID),
				zap.String("type", string(j.n.Type)),
				zap.Error(err),
			)
		}
	}
}

// retryable помечает транспортную ошибку как повторяемую
func retryable(op string, err error) error {
	if err == nil {
		return nil
	}
	return retry.RetryableError(fmt.Errorf("%s: %w", op, err))
}
