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
	DefaultRecurrenceCount = 10
	MaxRecurrenceCount     = 100
)

type RecurringRequest struct {
	TutorID         int64                   `json:"tutor_id"`
	Subject         string                  `json:"subject"`
	StartAt         time.Time               `json:"start_at"`
	DurationMinutes int                     `json:"duration_minutes"`
	Pattern         model.RecurrencePattern `json:"pattern"`
	Count           int                     `json:"count"`
	EndDate         *time.Time              `json:"end_date"`
	Notes           string                  `json:"notes"`
}

// ExpandRecurrence возвращает времена начала сессий серии. count <= 0 - значение по умолчанию,
// nil endDate - год от старта. Генерация останавливается на первой достигнутой границе.
func ExpandRecurrence(start time.Time, pattern model.RecurrencePattern, count int, endDate *time.Time) ([]time.Time, error) {
	if !pattern.Valid() {
		return nil, validationf("unknown recurrence pattern %q", pattern)
	}

	if count <= 0 {
		count = DefaultRecurrenceCount
	}
	if count > MaxRecurrenceCount {
		count = MaxRecurrenceCount
	}

	end := start.AddDate(1, 0, 0)
	if endDate != nil {
		if endDate.Before(start) {
			return nil, validationf("recurrence end date is before the first session")
		}
		end = *endDate
	}

	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		var next time.Time
		switch pattern {
		case model.RecurrenceDaily:
			next = start.AddDate(0, 0, i)
		case model.RecurrenceWeekly:
			next = start.AddDate(0, 0, 7*i)
		case model.RecurrenceBiweekly:
			next = start.AddDate(0, 0, 14*i)
		case model.RecurrenceMonthly:
			next = start.AddDate(0, i, 0)
		}
		if next.After(end) {
			break
		}
		dates = append(dates, next)
	}

	return dates, nil
}

type RecurringService struct {
	clock
	tx          TxManager
	tutorRepo   TutorRepository
	sessionRepo SessionRepository
	notifier    Notifier
	logger      *zap.Logger
}

func NewRecurringService(repos Repositories, notifier Notifier, logger *zap.Logger) *RecurringService {
	return &RecurringService{
		clock:       systemClock(),
		tx:          repos.Tx,
		tutorRepo:   repos.Tutors,
		sessionRepo: repos.Sessions,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateSeries создаёт все сессии серии одной транзакцией.
// Если хотя бы одна дата конфликтует, серия не создаётся целиком.
func (s *RecurringService) CreateSeries(ctx context.Context, userID int64, req RecurringRequest) ([]*model.Session, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, validationf("subject is required")
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}
	if req.StartAt.IsZero() || !req.StartAt.After(s.now()) {
		return nil, validationf("first session must be in the future")
	}

	dates, err := ExpandRecurrence(req.StartAt, req.Pattern, req.Count, req.EndDate)
	if err != nil {
		return nil, err
	}

	endDate := req.StartAt.AddDate(1, 0, 0)
	if req.EndDate != nil {
		endDate = *req.EndDate
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

	var sessions []*model.Session

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sessions = sessions[:0]

		if err := s.sessionRepo.LockParticipants(ctx, tutor.UserID, userID); err != nil {
			return err
		}

		var parentID *int64
		for i, date := range dates {
			session := &model.Session{
				TutorID:           tutor.ID,
				TutorUserID:       tutor.UserID,
				StudentID:         userID,
				Subject:           subject,
				Status:            model.SessionStatusScheduled,
				Notes:             strings.TrimSpace(req.Notes),
				RecurrencePattern: req.Pattern,
				RecurrenceEndDate: &endDate,
				ParentSessionID:   parentID,
				SequenceNumber:    i + 1,
			}
			session.SetSchedule(date, req.DurationMinutes)

			if err := ensureNoConflict(ctx, s.sessionRepo, session.ScheduledAt, session.EndsAt, 0, tutor.UserID, userID); err != nil {
				return fmt.Errorf("session %d on %s: %w", i+1, date.Format("2006-01-02 15:04"), err)
			}
			if err := s.sessionRepo.Create(ctx, session); err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			// первая сессия серии - родитель для всех, включая себя
			if parentID == nil {
				id := session.ID
				parentID = &id
				session.ParentSessionID = parentID
				ok, err := s.sessionRepo.Update(ctx, session)
				if err != nil {
					return fmt.Errorf("link parent session: %w", err)
				}
				if !ok {
					return ErrInvalidState
				}
			}

			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recurring series created",
		zap.Int64("parent_session_id", sessions[0].ID),
		zap.String("pattern", string(req.Pattern)),
		zap.Int("count", len(sessions)),
	)

	n := sessionNotification(model.NotificationRecurringCreated, sessions[0], s.now())
	n.Count = len(sessions)
	notifyParticipants(s.notifier, sessions[0], n)

	return sessions, nil
}

// ListSeries возвращает все сессии серии, старые сверху
func (s *RecurringService) ListSeries(ctx context.Context, userID, parentID int64) ([]*model.Session, error) {
	sessions, err := s.sessionRepo.ListSeries(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrSeriesNotFound
	}
	if !sessions[0].IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return sessions, nil
}

// CancelSeries отменяет только будущие scheduled-сессии серии, прошедшие не трогает
func (s *RecurringService) CancelSeries(ctx context.Context, userID, parentID int64) (int, error) {
	now := s.now()
	var cancelled []*model.Session

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cancelled = cancelled[:0]

		sessions, err := s.ListSeries(ctx, userID, parentID)
		if err != nil {
			return err
		}

		for _, session := range sessions {
			if !session.ScheduledAt.After(now) || session.Status != model.SessionStatusScheduled {
				continue
			}
			ok, err := s.sessionRepo.TransitionStatus(ctx, session.ID,
				[]model.SessionStatus{model.SessionStatusScheduled}, model.SessionStatusCancelled)
			if err != nil {
				return fmt.Errorf("cancel session %d: %w", session.ID, err)
			}
			if ok {
				session.Status = model.SessionStatusCancelled
				cancelled = append(cancelled, session)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Recurring series cancelled",
		zap.Int64("parent_session_id", parentID),
		zap.Int("cancelled", len(cancelled)),
	)

	if len(cancelled) > 0 {
		n := sessionNotification(model.NotificationSessionCancelled, cancelled[0], now)
		n.SessionID = parentID
		n.Count = len(cancelled)
		notifyParticipants(s.notifier, cancelled[0], n)
	}

	return len(cancelled), nil
}
