package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()

	if user.TelegramID != nil {
		for _, u := range r.s.data.users {
			if u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
				return fmt.Errorf("create user: telegram id %d already registered", *user.TelegramID)
			}
		}
	}

	user.ID = r.s.id()
	user.CreatedAt = r.s.now()
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.data.users[user.ID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	existing.Username = user.Username
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.IsAdmin = user.IsAdmin
	r.s.data.users[user.ID] = existing
	return nil
}
