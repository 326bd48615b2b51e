package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JoinLogRepository struct {
	*base.Repository
}

func NewJoinLogRepository(pool *pgxpool.Pool) *JoinLogRepository {
	return &JoinLogRepository{Repository: base.NewRepository(pool)}
}

func (r *JoinLogRepository) Create(ctx context.Context, entry *model.JoinLog) error {
	query := `
		INSERT INTO join_logs (session_id, user_id, token_fragment, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, entry.SessionID, entry.UserID, entry.TokenFragment, entry.IP, entry.UserAgent).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create join log: %w", err)
	}
	return nil
}

// ListRecent возвращает последние записи журнала, новые сверху
func (r *JoinLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.JoinLog, error) {
	query := `
		SELECT id, session_id, user_id, token_fragment, ip, user_agent, created_at
		FROM join_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list join logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.JoinLog
	for rows.Next() {
		var entry model.JoinLog
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.UserID,
			&entry.TokenFragment,
			&entry.IP,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan join log: %w", err)
		}
		logs = append(logs, &entry)
	}

	return logs, rows.Err()
}
