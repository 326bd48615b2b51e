package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
)

// TxManager выполняет fn как одну единицу работы, репозитории берут транзакцию из ctx.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type TutorRepository interface {
	Create(ctx context.Context, profile *model.TutorProfile) error
	GetByID(ctx context.Context, id int64) (*model.TutorProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*model.TutorProfile, error)
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	HasOverlap(ctx context.Context, tutorID int64, start, end time.Time) (bool, error)
	ListAvailable(ctx context.Context, tutorID int64, from time.Time, limit int) ([]*model.Slot, error)
	ListByTutor(ctx context.Context, tutorID int64, limit int) ([]*model.Slot, error)
	ListBookedBy(ctx context.Context, userID int64, limit int) ([]*model.Slot, error)
	MarkBooked(ctx context.Context, slotID, userID int64) (bool, error)
	AttachSession(ctx context.Context, slotID, sessionID int64) error
	Disable(ctx context.Context, slotID int64) (bool, error)
	DeleteAvailable(ctx context.Context, slotID int64) (bool, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	LockTutor(ctx context.Context, tutorID int64) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	// Update меняет только scheduled-сессию; false - статус успел измениться
	Update(ctx context.Context, session *model.Session) (bool, error)
	HasConflict(ctx context.Context, userIDs []int64, start, end time.Time, excludeID int64) (bool, error)
	LockParticipants(ctx context.Context, userIDs ...int64) error
	TransitionStatus(ctx context.Context, id int64, from []model.SessionStatus, to model.SessionStatus) (bool, error)
	MarkStarted(ctx context.Context, id int64, meetingURL, joinToken string, expiresAt time.Time) (bool, error)
	List(ctx context.Context, filter model.SessionFilter) ([]*model.Session, error)
	ListSeries(ctx context.Context, parentID int64) ([]*model.Session, error)
}

type IssuedTokenRepository interface {
	Create(ctx context.Context, t *model.IssuedToken) error
	GetByToken(ctx context.Context, token string) (*model.IssuedToken, error)
	MarkUsed(ctx context.Context, id int64) (bool, error)
}

type JoinLogRepository interface {
	Create(ctx context.Context, entry *model.JoinLog) error
	ListRecent(ctx context.Context, limit int) ([]*model.JoinLog, error)
}

// Notifier принимает события для одного пользователя без ожидания. Реализация не должна блокировать.
type Notifier interface {
	Notify(userID int64, n model.Notification)
}

// TokenSigner подписывает и проверяет токены комнаты, входа и доступа.
type TokenSigner interface {
	Sign(claims token.Claims, ttl time.Duration) (string, time.Time, error)
	Verify(tokenString string) (*token.Claims, error)
}

// Repositories хранилища, которые используют сервисы.
type Repositories struct {
	Tx           TxManager
	Users        UserRepository
	Tutors       TutorRepository
	Slots        SlotRepository
	Sessions     SessionRepository
	IssuedTokens IssuedTokenRepository
	JoinLogs     JoinLogRepository
}
