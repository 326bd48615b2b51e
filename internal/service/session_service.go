package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"go.uber.org/zap"
)

// UpdateSessionRequest необязательные изменения, nil-поля не трогаются
type UpdateSessionRequest struct {
	Subject         *string    `json:"subject"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	Notes           *string    `json:"notes"`
}

type SessionService struct {
	clock
	tx          TxManager
	sessionRepo SessionRepository
	notifier    Notifier
	logger      *zap.Logger
}

func NewSessionService(repos Repositories, notifier Notifier, logger *zap.Logger) *SessionService {
	return &SessionService{
		clock:       systemClock(),
		tx:          repos.Tx,
		sessionRepo: repos.Sessions,
		notifier:    notifier,
		logger:      logger,
	}
}

// Get возвращает сессию, если пользователь в ней участвует
func (s *SessionService) Get(ctx context.Context, userID, sessionID int64) (*model.Session, error) {
	return s.participantSession(ctx, userID, sessionID)
}

// List возвращает сессии пользователя, новые сверху. Пустая роль - обе стороны.
func (s *SessionService) List(ctx context.Context, userID int64, role model.SessionRole, status model.SessionStatus) ([]*model.Session, error) {
	switch status {
	case "", model.SessionStatusScheduled, model.SessionStatusInProgress, model.SessionStatusCompleted, model.SessionStatusCancelled:
	default:
		return nil, validationf("unknown status %q", status)
	}

	roles := []model.SessionRole{role}
	switch role {
	case model.RoleTutor, model.RoleStudent:
	case "":
		roles = []model.SessionRole{model.RoleTutor, model.RoleStudent}
	default:
		return nil, validationf("unknown role %q", role)
	}

	var out []*model.Session
	for _, r := range roles {
		sessions, err := s.sessionRepo.List(ctx, model.SessionFilter{UserID: userID, Role: r, Status: status})
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, sessions...)
	}

	slices.SortStableFunc(out, func(a, b *model.Session) int {
		return b.ScheduledAt.Compare(a.ScheduledAt)
	})
	return out, nil
}

// Upcoming возвращает ближайшие scheduled и in-progress сессии пользователя в обеих ролях.
// Каждая роль выбирается из хранилища по возрастанию, так что ближайшие не теряются за лимитом.
func (s *SessionService) Upcoming(ctx context.Context, userID int64, limit int) ([]*model.Session, error) {
	from := s.now().Add(-maxStartDelay)

	var out []*model.Session
	for _, role := range []model.SessionRole{model.RoleTutor, model.RoleStudent} {
		sessions, err := s.sessionRepo.List(ctx, model.SessionFilter{
			UserID:    userID,
			Role:      role,
			Statuses:  []model.SessionStatus{model.SessionStatusScheduled, model.SessionStatusInProgress},
			From:      &from,
			Limit:     limit,
			Ascending: true,
		})
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, sessions...)
	}

	slices.SortFunc(out, func(a, b *model.Session) int {
		return a.ScheduledAt.Compare(b.ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Complete: любой участник, из scheduled или in-progress
func (s *SessionService) Complete(ctx context.Context, userID, sessionID int64) (*model.Session, error) {
	session, err := s.participantSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ok, err := s.sessionRepo.TransitionStatus(ctx, sessionID,
		[]model.SessionStatus{model.SessionStatusScheduled, model.SessionStatusInProgress},
		model.SessionStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !ok {
		return nil, ErrInvalidState
	}
	session.Status = model.SessionStatusCompleted

	s.logger.Info("Session completed",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", userID),
	)
	notifyParticipants(s.notifier, session, sessionNotification(model.NotificationSessionCompleted, session, s.now()))

	return session, nil
}

// Cancel: студент отменяет scheduled, учитель только уже начатую (in-progress)
func (s *SessionService) Cancel(ctx context.Context, userID, sessionID int64) (*model.Session, error) {
	session, err := s.participantSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	from := []model.SessionStatus{model.SessionStatusScheduled}
	if session.TutorUserID == userID {
		if session.Status == model.SessionStatusScheduled {
			return nil, ErrOnlyStudent
		}
		from = []model.SessionStatus{model.SessionStatusInProgress}
	}

	if err := s.cancel(ctx, session, from); err != nil {
		return nil, err
	}

	s.logger.Info("Session cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", userID),
	)
	notifyParticipants(s.notifier, session, sessionNotification(model.NotificationSessionCancelled, session, s.now()))

	return session, nil
}

// Delete логически удаляет сессию (cancelled). Только студент и только пока scheduled.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID int64) error {
	session, err := s.studentSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := s.cancel(ctx, session, []model.SessionStatus{model.SessionStatusScheduled}); err != nil {
		return err
	}

	s.logger.Info("Session deleted by student", zap.Int64("session_id", sessionID))
	s.notifier.Notify(session.TutorUserID, sessionNotification(model.NotificationSessionCancelled, session, s.now()))

	return nil
}

// Update меняет тему, время или заметки. Новое время проходит ту же проверку конфликтов, что и бронирование.
func (s *SessionService) Update(ctx context.Context, userID, sessionID int64, req UpdateSessionRequest) (*model.Session, error) {
	var session *model.Session

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.studentSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Status != model.SessionStatusScheduled {
			return ErrInvalidState
		}

		if req.Subject != nil {
			subject := strings.TrimSpace(*req.Subject)
			if subject == "" {
				return validationf("subject is required")
			}
			session.Subject = subject
		}
		if req.Notes != nil {
			session.Notes = strings.TrimSpace(*req.Notes)
		}

		if req.ScheduledAt == nil && req.DurationMinutes == nil {
			return s.saveScheduled(ctx, session)
		}

		start, duration := session.ScheduledAt, session.DurationMinutes
		if req.ScheduledAt != nil {
			start = *req.ScheduledAt
		}
		// границы длительности проверяются только для новой длительности:
		// сессия из короткого слота переносится со своей длительностью
		if req.DurationMinutes != nil {
			duration = *req.DurationMinutes
			if err := validateDuration(duration); err != nil {
				return err
			}
		}
		if !start.After(s.now()) {
			return validationf("scheduled time must be in the future")
		}
		session.SetSchedule(start, duration)

		if err := s.sessionRepo.LockParticipants(ctx, session.TutorUserID, session.StudentID); err != nil {
			return err
		}
		if err := ensureNoConflict(ctx, s.sessionRepo, session.ScheduledAt, session.EndsAt, session.ID, session.TutorUserID, session.StudentID); err != nil {
			return err
		}
		return s.saveScheduled(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session updated", zap.Int64("session_id", sessionID))
	s.notifier.Notify(session.TutorUserID, sessionNotification(model.NotificationSessionUpdated, session, s.now()))

	return session, nil
}

// saveScheduled пишет изменения, только если сессия всё ещё scheduled
func (s *SessionService) saveScheduled(ctx context.Context, session *model.Session) error {
	ok, err := s.sessionRepo.Update(ctx, session)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

func (s *SessionService) cancel(ctx context.Context, session *model.Session, from []model.SessionStatus) error {
	ok, err := s.sessionRepo.TransitionStatus(ctx, session.ID, from, model.SessionStatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	if !ok {
		return ErrInvalidState
	}
	session.Status = model.SessionStatusCancelled
	return nil
}

func (s *SessionService) participantSession(ctx context.Context, userID, sessionID int64) (*model.Session, error) {
	session, err := loadSession(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return session, nil
}

func (s *SessionService) studentSession(ctx context.Context, userID, sessionID int64) (*model.Session, error) {
	session, err := loadSession(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	if session.StudentID != userID {
		return nil, ErrOnlyStudent
	}
	return session, nil
}

func loadSession(ctx context.Context, sessions SessionRepository, sessionID int64) (*model.Session, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
