package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/config"
	"github.com/Freeeeeet/tutor_sessions/internal/controller"
	"github.com/Freeeeeet/tutor_sessions/internal/controller/api"
	"github.com/Freeeeeet/tutor_sessions/internal/notify"
	"github.com/Freeeeeet/tutor_sessions/internal/repository"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/memory"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App собирает все компоненты сервиса
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	server     *http.Server
	bot        *controller.BotController
	dispatcher *notify.Dispatcher
	scheduler  *Scheduler

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if cfg.GeneratedSecret {
		logger.Warn("JWT_SECRET is not set, using a random secret: tokens will not survive a restart")
	}
	if cfg.AllowEarlyStart {
		logger.Warn("ALLOW_EARLY_START is enabled, sessions can be started before their window")
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repos, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	signer, err := token.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		a.Close()
		return nil, err
	}

	userService := service.NewUserService(repos.Users, logger)

	var botInstance *bot.Bot
	if cfg.TelegramToken != "" {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
	}

	sinks, err := a.notificationSinks(ctx, botInstance, userService)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.dispatcher = notify.NewDispatcher(notify.Options{
		QueueSize:  cfg.NotifyQueueSize,
		MaxRetries: cfg.NotifyMaxRetries,
	}, logger, sinks...)

	svc := api.Services{
		Users:     userService,
		Tutors:    service.NewTutorService(repos, logger),
		Slots:     service.NewSlotService(repos, location, logger),
		Booking:   service.NewBookingService(repos, a.dispatcher, logger),
		Sessions:  service.NewSessionService(repos, a.dispatcher, logger),
		Recurring: service.NewRecurringService(repos, a.dispatcher, logger),
		Meeting: service.NewMeetingService(repos, signer, a.dispatcher, service.MeetingConfig{
			BaseURL:         cfg.MeetingBaseURL,
			AllowEarlyStart: cfg.AllowEarlyStart,
		}, logger),
	}

	a.scheduler = NewScheduler(svc.Slots, cfg.SlotSweepInterval, logger)

	if botInstance != nil {
		a.bot = controller.NewBotController(botInstance, svc.Users, svc.Tutors, svc.Sessions, signer, cfg.AccessTokenTTL, logger)
	}

	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, signer, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStorage выбирает Postgres или in-memory хранилище
func (a *App) openStorage(ctx context.Context) (service.Repositories, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return service.Repositories{
			Tx:           store,
			Users:        store.Users(),
			Tutors:       store.Tutors(),
			Slots:        store.Slots(),
			Sessions:     store.Sessions(),
			IssuedTokens: store.IssuedTokens(),
			JoinLogs:     store.JoinLogs(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.DBDSN)
	if err != nil {
		return service.Repositories{}, fmt.Errorf("create connection pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return service.Repositories{}, fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("Connected to PostgreSQL")

	migrator, err := NewMigrator(pool, a.logger)
	if err != nil {
		return service.Repositories{}, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return service.Repositories{}, err
	}

	return service.Repositories{
		Tx:           base.NewTxManager(pool),
		Users:        repository.NewUserRepository(pool),
		Tutors:       repository.NewTutorRepository(pool),
		Slots:        repository.NewSlotRepository(pool),
		Sessions:     repository.NewSessionRepository(pool),
		IssuedTokens: repository.NewIssuedTokenRepository(pool),
		JoinLogs:     repository.NewJoinLogRepository(pool),
	}, nil
}

// notificationSinks подключает каналы доставки по конфигу, без них события только логируются
func (a *App) notificationSinks(ctx context.Context, botInstance *bot.Bot, users notify.UserLookup) ([]notify.Sink, error) {
	var sinks []notify.Sink

	if botInstance != nil {
		sinks = append(sinks, notify.NewTelegramSink(botInstance, users))
	}

	if a.cfg.RabbitMQURL != "" {
		mq, err := notify.DialRabbitMQ(a.cfg.RabbitMQURL, a.cfg.RabbitMQExchange, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := mq.Close(); err != nil {
				a.logger.Error("Failed to close RabbitMQ", zap.Error(err))
			}
		})
		sinks = append(sinks, notify.NewRabbitMQSink(mq.Channel, a.cfg.RabbitMQExchange))
	}

	if a.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Error("Failed to close Redis client", zap.Error(err))
			}
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.logger.Info("Connected to Redis")
		sinks = append(sinks, notify.NewRedisSink(client))
	}

	if len(sinks) == 0 {
		sinks = append(sinks, notify.NewLogSink(a.logger))
	}
	return sinks, nil
}

// Run блокируется до отмены ctx или ошибки HTTP сервера, затем аккуратно всё останавливает
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// очередь дочитывается при остановке, поэтому доставка не привязана к ctx
	a.dispatcher.Start(context.WithoutCancel(ctx))
	a.scheduler.Start(ctx)

	if a.bot != nil {
		if err := a.bot.RegisterHandlers(ctx); err != nil {
			a.logger.Error("Failed to register bot handlers", zap.Error(err))
		}
		go a.bot.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	cancel()
	a.scheduler.Stop()
	a.dispatcher.Stop()
	a.Close()

	return runErr
}

// Close освобождает внешние соединения в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
