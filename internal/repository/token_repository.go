package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IssuedTokenRepository хранит одноразовые токены входа
type IssuedTokenRepository struct {
	*base.Repository
}

func NewIssuedTokenRepository(pool *pgxpool.Pool) *IssuedTokenRepository {
	return &IssuedTokenRepository{Repository: base.NewRepository(pool)}
}

func (r *IssuedTokenRepository) Create(ctx context.Context, t *model.IssuedToken) error {
	query := `
		INSERT INTO issued_tokens (session_id, user_id, token, used, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, t.SessionID, t.UserID, t.Token, t.Used, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create issued token: %w", err)
	}
	return nil
}

func (r *IssuedTokenRepository) GetByToken(ctx context.Context, token string) (*model.IssuedToken, error) {
	query := `
		SELECT id, session_id, user_id, token, used, expires_at, created_at
		FROM issued_tokens
		WHERE token = $1
	`

	var t model.IssuedToken
	err := r.QueryRow(ctx, query, token).Scan(
		&t.ID,
		&t.SessionID,
		&t.UserID,
		&t.Token,
		&t.Used,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get issued token: %w", err)
	}
	return &t, nil
}

// MarkUsed помечает токен использованным. false - токен уже был использован.
func (r *IssuedTokenRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `UPDATE issued_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("mark issued token used: %w", err)
	}
	return affected == 1, nil
}
