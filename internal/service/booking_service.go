package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"go.uber.org/zap"
)

const (
	MinSessionDurationMinutes = 30
	MaxSessionDurationMinutes = 240
)

type BookingResult struct {
	Session *model.Session `json:"session"`
	Slot    *model.Slot    `json:"slot"`
}

// AdHocRequest бронирование без заранее созданного слота
type AdHocRequest struct {
	TutorID         int64     `json:"tutor_id"`
	Subject         string    `json:"subject"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

type BookingService struct {
	clock
	tx          TxManager
	tutorRepo   TutorRepository
	slotRepo    SlotRepository
	sessionRepo SessionRepository
	notifier    Notifier
	logger      *zap.Logger
}

func NewBookingService(repos Repositories, notifier Notifier, logger *zap.Logger) *BookingService {
	return &BookingService{
		clock:       systemClock(),
		tx:          repos.Tx,
		tutorRepo:   repos.Tutors,
		slotRepo:    repos.Slots,
		sessionRepo: repos.Sessions,
		notifier:    notifier,
		logger:      logger,
	}
}

// BookSlot бронирует слот и создаёт сессию одной транзакцией.
// Из конкурирующих запросов на один слот выигрывает ровно один, остальные получают ErrSlotUnavailable.
func (s *BookingService) BookSlot(ctx context.Context, userID, slotID int64, subject, notes string) (*BookingResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, validationf("subject is required")
	}

	var result BookingResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotRepo.GetByID(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		tutor, err := s.tutorRepo.GetByID(ctx, slot.TutorID)
		if err != nil {
			return fmt.Errorf("get tutor: %w", err)
		}
		if tutor == nil {
			return ErrTutorNotFound
		}
		if tutor.UserID == userID {
			return ErrSelfBooking
		}

		if slot.Status != model.SlotStatusAvailable {
			return ErrSlotUnavailable
		}
		if !slot.StartAt.After(s.now()) {
			return validationf("slot is in the past")
		}

		if err := s.sessionRepo.LockParticipants(ctx, tutor.UserID, userID); err != nil {
			return err
		}
		if err := ensureNoConflict(ctx, s.sessionRepo, slot.StartAt, slot.EndAt, 0, tutor.UserID, userID); err != nil {
			return err
		}

		// CAS available -> booked: проигравший в гонке получает false
		booked, err := s.slotRepo.MarkBooked(ctx, slot.ID, userID)
		if err != nil {
			return fmt.Errorf("book slot: %w", err)
		}
		if !booked {
			return ErrSlotUnavailable
		}

		session := &model.Session{
			TutorID:     tutor.ID,
			TutorUserID: tutor.UserID,
			StudentID:   userID,
			Subject:     subject,
			Status:      model.SessionStatusScheduled,
			Notes:       strings.TrimSpace(notes),
		}
		session.SetSchedule(slot.StartAt, slot.DurationMinutes)

		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := s.slotRepo.AttachSession(ctx, slot.ID, session.ID); err != nil {
			return fmt.Errorf("attach session: %w", err)
		}

		slot.Status = model.SlotStatusBooked
		slot.BookedBy = &userID
		slot.SessionID = &session.ID

		result = BookingResult{Session: session, Slot: slot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.Int64("slot_id", slotID),
		zap.Int64("session_id", result.Session.ID),
		zap.Int64("student_id", userID),
	)

	notifyParticipants(s.notifier, result.Session, sessionNotification(model.NotificationSessionBooked, result.Session, s.now()))

	return &result, nil
}

// BookAdHoc создаёт сессию без слота с той же проверкой конфликтов
func (s *BookingService) BookAdHoc(ctx context.Context, userID int64, req AdHocRequest) (*model.Session, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, validationf("subject is required")
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}
	if req.ScheduledAt.IsZero() || !req.ScheduledAt.After(s.now()) {
		return nil, validationf("scheduled time must be in the future")
	}

	tutor, err := s.tutorRepo.GetByID(ctx, req.TutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, ErrTutorNotFound
	}
	if tutor.UserID == userID {
		return nil, ErrSelfBooking
	}

	session := &model.Session{
		TutorID:     tutor.ID,
		TutorUserID: tutor.UserID,
		StudentID:   userID,
		Subject:     subject,
		Status:      model.SessionStatusScheduled,
		Notes:       strings.TrimSpace(req.Notes),
	}
	session.SetSchedule(req.ScheduledAt, req.DurationMinutes)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.LockParticipants(ctx, tutor.UserID, userID); err != nil {
			return err
		}
		if err := ensureNoConflict(ctx, s.sessionRepo, session.ScheduledAt, session.EndsAt, 0, tutor.UserID, userID); err != nil {
			return err
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ad-hoc session booked",
		zap.Int64("session_id", session.ID),
		zap.Int64("tutor_id", tutor.ID),
		zap.Int64("student_id", userID),
		zap.Time("scheduled_at", session.ScheduledAt),
	)

	notifyParticipants(s.notifier, session, sessionNotification(model.NotificationSessionBooked, session, s.now()))

	return session, nil
}

// ensureNoConflict проверяет, что у участников нет неотменённых сессий в [start, end)
func ensureNoConflict(ctx context.Context, sessions SessionRepository, start, end time.Time, excludeID int64, userIDs ...int64) error {
	conflict, err := sessions.HasConflict(ctx, userIDs, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("check conflict: %w", err)
	}
	if conflict {
		return ErrTimeConflict
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < MinSessionDurationMinutes || minutes > MaxSessionDurationMinutes {
		return validationf("duration must be between %d and %d minutes", MinSessionDurationMinutes, MaxSessionDurationMinutes)
	}
	return nil
}

func sessionNotification(kind model.NotificationType, session *model.Session, now time.Time) model.Notification {
	scheduledAt := session.ScheduledAt
	return model.Notification{
		Type:        kind,
		SessionID:   session.ID,
		Subject:     session.Subject,
		ScheduledAt: &scheduledAt,
		CreatedAt:   now,
	}
}

func notifyParticipants(notifier Notifier, session *model.Session, n model.Notification) {
	notifier.Notify(session.TutorUserID, n)
	notifier.Notify(session.StudentID, n)
}
