package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SlotExpirer операция очистки, которую запускает планировщик
type SlotExpirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	slots    SlotExpirer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(slots SlotExpirer, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		slots:    slots,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("slot_sweep_interval", s.interval))

	go s.runSlotExpiryTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runSlotExpiryTask периодически переводит прошедшие слоты в expired
func (s *Scheduler) runSlotExpiryTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.expireSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot expiry task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot expiry task cancelled")
			return
		}
	}
}

func (s *Scheduler) expireSlots(ctx context.Context) {
	count, err := s.slots.ExpireEnded(ctx)
	if err != nil {
		s.logger.Error("Failed to expire slots", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Slots expired", zap.Int64("count", count))
	}
}
