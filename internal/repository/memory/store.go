// Package memory - репозитории в памяти процесса для тестов и STORAGE=memory.
// Транзакция держит лок хранилища всё время и при ошибке восстанавливает снимок,
// так что поведение "всё или ничего" то же, что у Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type txKey struct{}

type data struct {
	users    map[int64]model.User
	tutors   map[int64]model.TutorProfile
	slots    map[int64]model.Slot
	sessions map[int64]model.Session
	tokens   map[int64]model.IssuedToken
	joinLogs []model.JoinLog
	nextID   int64
}

func (d *data) clone() *data {
	c := &data{
		users:    make(map[int64]model.User, len(d.users)),
		tutors:   make(map[int64]model.TutorProfile, len(d.tutors)),
		slots:    make(map[int64]model.Slot, len(d.slots)),
		sessions: make(map[int64]model.Session, len(d.sessions)),
		tokens:   make(map[int64]model.IssuedToken, len(d.tokens)),
		joinLogs: append([]model.JoinLog(nil), d.joinLogs...),
		nextID:   d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.tutors {
		c.tutors[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	return c
}

// Store хранит все таблицы в памяти
type Store struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &data{
			users:    make(map[int64]model.User),
			tutors:   make(map[int64]model.TutorProfile),
			slots:    make(map[int64]model.Slot),
			sessions: make(map[int64]model.Session),
			tokens:   make(map[int64]model.IssuedToken),
		},
		now: time.Now,
	}
}

// SetClock подменяет часы для created_at/updated_at
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithinTx реализует менеджер транзакций сервисов
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock берёт лок хранилища, если ctx ещё не внутри транзакции этого хранилища
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) id() int64 {
	s.data.nextID++
	return s.data.nextID
}

// Users репозиторий пользователей
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// Tutors репозиторий профилей репетиторов
func (s *Store) Tutors() *TutorRepository { return &TutorRepository{s} }

// Slots репозиторий слотов
func (s *Store) Slots() *SlotRepository { return &SlotRepository{s} }

// Sessions репозиторий сессий
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s} }

// IssuedTokens репозиторий выданных токенов
func (s *Store) IssuedTokens() *IssuedTokenRepository { return &IssuedTokenRepository{s} }

// JoinLogs репозиторий журнала входов
func (s *Store) JoinLogs() *JoinLogRepository { return &JoinLogRepository{s} }
