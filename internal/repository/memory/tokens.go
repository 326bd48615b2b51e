package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type IssuedTokenRepository struct{ s *Store }

func (r *IssuedTokenRepository) Create(ctx context.Context, t *model.IssuedToken) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.tokens {
		if existing.Token == t.Token {
			return fmt.Errorf("create issued token: duplicate token")
		}
	}
	t.ID = r.s.id()
	t.CreatedAt = r.s.now()
	r.s.data.tokens[t.ID] = *t
	return nil
}

func (r *IssuedTokenRepository) GetByToken(ctx context.Context, token string) (*model.IssuedToken, error) {
	defer r.s.lock(ctx)()

	for _, t := range r.s.data.tokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *IssuedTokenRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.tokens[id]
	if !ok || t.Used {
		return false, nil
	}
	t.Used = true
	r.s.data.tokens[id] = t
	return true, nil
}

type JoinLogRepository struct{ s *Store }

func (r *JoinLogRepository) Create(ctx context.Context, entry *model.JoinLog) error {
	defer r.s.lock(ctx)()

	entry.ID = r.s.id()
	entry.CreatedAt = r.s.now()
	r.s.data.joinLogs = append(r.s.data.joinLogs, *entry)
	return nil
}

func (r *JoinLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.JoinLog, error) {
	defer r.s.lock(ctx)()

	out := make([]*model.JoinLog, 0, len(r.s.data.joinLogs))
	for i := range r.s.data.joinLogs {
		entry := r.s.data.joinLogs[i]
		out = append(out, &entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
