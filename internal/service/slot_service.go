package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"go.uber.org/zap"
)

const (
	MinSlotDurationMinutes = 10
	slotListLimit          = 200
)

// CreateSlotsRequest окно доступности репетитора на один день в настроенной таймзоне
type CreateSlotsRequest struct {
	Date                string `json:"date"`       // 2006-01-02
	StartTime           string `json:"start_time"` // 15:04
	EndTime             string `json:"end_time"`   // 15:04
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type CreateSlotsResult struct {
	Created int           `json:"created"`
	Slots   []*model.Slot `json:"slots"`
	Message string        `json:"message,omitempty"`
}

type SlotService struct {
	clock
	tx        TxManager
	tutorRepo TutorRepository
	slotRepo  SlotRepository
	location  *time.Location
	logger    *zap.Logger
}

func NewSlotService(repos Repositories, location *time.Location, logger *zap.Logger) *SlotService {
	if location == nil {
		location = time.UTC
	}
	return &SlotService{
		clock:     systemClock(),
		tx:        repos.Tx,
		tutorRepo: repos.Tutors,
		slotRepo:  repos.Slots,
		location:  location,
		logger:    logger,
	}
}

// CreateSlots нарезает окно на слоты фиксированной длины.
// Кандидаты, пересекающиеся с существующими слотами или уже прошедшие, пропускаются.
func (s *SlotService) CreateSlots(ctx context.Context, userID int64, req CreateSlotsRequest) (*CreateSlotsResult, error) {
	tutor, err := s.tutorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd, err := s.parseWindow(req)
	if err != nil {
		return nil, err
	}
	if req.SlotDurationMinutes < MinSlotDurationMinutes {
		return nil, validationf("slot duration must be at least %d minutes", MinSlotDurationMinutes)
	}
	step := time.Duration(req.SlotDurationMinutes) * time.Minute
	now := s.now()

	result := &CreateSlotsResult{Slots: []*model.Slot{}}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		result.Slots = result.Slots[:0]

		if err := s.slotRepo.LockTutor(ctx, tutor.ID); err != nil {
			return err
		}

		for start := windowStart; !start.Add(step).After(windowEnd); start = start.Add(step) {
			end := start.Add(step)
			if start.Before(now) {
				continue
			}

			overlap, err := s.slotRepo.HasOverlap(ctx, tutor.ID, start, end)
			if err != nil {
				return fmt.Errorf("check overlap: %w", err)
			}
			if overlap {
				continue
			}

			slot := &model.Slot{
				TutorID:         tutor.ID,
				StartAt:         start,
				EndAt:           end,
				DurationMinutes: req.SlotDurationMinutes,
				Status:          model.SlotStatusAvailable,
			}
			if err := s.slotRepo.Create(ctx, slot); err != nil {
				return fmt.Errorf("create slot: %w", err)
			}
			result.Slots = append(result.Slots, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Created = len(result.Slots)
	if result.Created == 0 {
		result.Message = "no new slots: every candidate overlaps an existing slot or is in the past"
	}

	s.logger.Info("Slots created",
		zap.Int64("tutor_id", tutor.ID),
		zap.String("date", req.Date),
		zap.Int("created", result.Created),
	)

	return result, nil
}

func (s *SlotService) parseWindow(req CreateSlotsRequest) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", req.Date, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("invalid date %q, expected YYYY-MM-DD", req.Date)
	}

	clockTime := func(value string) (time.Time, error) {
		t, err := time.Parse("15:04", value)
		if err != nil {
			return time.Time{}, validationf("invalid time %q, expected HH:MM", value)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, s.location), nil
	}

	start, err := clockTime(req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := clockTime(req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, validationf("end time must be after start time")
	}

	return start, end, nil
}

// ListAvailable возвращает ближайшие свободные слоты репетитора
func (s *SlotService) ListAvailable(ctx context.Context, tutorID int64) ([]*model.Slot, error) {
	tutor, err := s.tutorRepo.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, ErrTutorNotFound
	}

	return s.slotRepo.ListAvailable(ctx, tutorID, s.now(), slotListLimit)
}

// ListMine возвращает все слоты репетитора независимо от статуса
func (s *SlotService) ListMine(ctx context.Context, userID int64) ([]*model.Slot, error) {
	tutor, err := s.tutorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.slotRepo.ListByTutor(ctx, tutor.ID, slotListLimit)
}

func (s *SlotService) ListMyBookings(ctx context.Context, userID int64) ([]*model.Slot, error) {
	return s.slotRepo.ListBookedBy(ctx, userID, slotListLimit)
}

// Disable переводит свободный слот в disabled
func (s *SlotService) Disable(ctx context.Context, userID, slotID int64) error {
	if _, err := s.ownedSlot(ctx, userID, slotID); err != nil {
		return err
	}

	ok, err := s.slotRepo.Disable(ctx, slotID)
	if err != nil {
		return fmt.Errorf("disable slot: %w", err)
	}
	if !ok {
		return ErrSlotUnavailable
	}

	s.logger.Info("Slot disabled", zap.Int64("slot_id", slotID))
	return nil
}

// Delete удаляет слот, пока он свободен
func (s *SlotService) Delete(ctx context.Context, userID, slotID int64) error {
	if _, err := s.ownedSlot(ctx, userID, slotID); err != nil {
		return err
	}

	ok, err := s.slotRepo.DeleteAvailable(ctx, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if !ok {
		return ErrSlotUnavailable
	}

	s.logger.Info("Slot deleted", zap.Int64("slot_id", slotID))
	return nil
}

// ExpireEnded периодическая очистка: прошедшие available и disabled слоты становятся expired
func (s *SlotService) ExpireEnded(ctx context.Context) (int64, error) {
	count, err := s.slotRepo.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire slots: %w", err)
	}
	return count, nil
}

func (s *SlotService) ownedSlot(ctx context.Context, userID, slotID int64) (*model.Slot, error) {
	tutor, err := s.tutorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if slot.TutorID != tutor.ID {
		return nil, ErrNotSlotOwner
	}
	return slot, nil
}

func (s *SlotService) tutorByUser(ctx context.Context, userID int64) (*model.TutorProfile, error) {
	tutor, err := s.tutorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get tutor profile: %w", err)
	}
	if tutor == nil {
		return nil, ErrNotTutor
	}
	return tutor, nil
}
