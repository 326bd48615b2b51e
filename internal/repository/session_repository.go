package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

const sessionColumns = `
	id, tutor_id, tutor_user_id, student_id, subject, scheduled_at, ends_at, duration_minutes,
	status, notes, meeting_url, join_token, token_expires_at,
	recurrence_pattern, recurrence_end_date, parent_session_id, sequence_number,
	created_at, updated_at`

// Create создаёт новую сессию
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (
			tutor_id, tutor_user_id, student_id, subject, scheduled_at, ends_at, duration_minutes,
			status, notes, recurrence_pattern, recurrence_end_date, parent_session_id, sequence_number
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		s.TutorID,
		s.TutorUserID,
		s.StudentID,
		s.Subject,
		s.ScheduledAt,
		s.EndsAt,
		s.DurationMinutes,
		s.Status,
		s.Notes,
		s.RecurrencePattern,
		s.RecurrenceEndDate,
		s.ParentSessionID,
		s.SequenceNumber,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return s, nil
}

// Update сохраняет изменяемые поля расписания. Пишет только пока status = 'scheduled',
// иначе возвращает false: параллельный старт или отмена успели раньше.
func (r *SessionRepository) Update(ctx context.Context, s *model.Session) (bool, error) {
	query := `
		UPDATE sessions
		SET subject = $1, scheduled_at = $2, ends_at = $3, duration_minutes = $4, notes = $5,
		    parent_session_id = $6, updated_at = NOW()
		WHERE id = $7 AND status = 'scheduled'
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query,
		s.Subject, s.ScheduledAt, s.EndsAt, s.DurationMinutes, s.Notes, s.ParentSessionID, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("update session: %w", err)
	}

	return true, nil
}

// HasConflict ищет неотменённую сессию любого из участников, пересекающую [start, end)
func (r *SessionRepository) HasConflict(ctx context.Context, userIDs []int64, start, end time.Time, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE status <> 'cancelled'
			  AND (tutor_user_id = ANY($1) OR student_id = ANY($1))
			  AND scheduled_at < $3
			  AND ends_at > $2
			  AND id <> $4
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, userIDs, start, end, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check session conflict: %w", err)
	}

	return exists, nil
}

// LockParticipants сериализует бронирования с участием этих пользователей до конца транзакции
func (r *SessionRepository) LockParticipants(ctx context.Context, userIDs ...int64) error {
	return r.LockKeys(ctx, lockNamespaceParticipants, userIDs...)
}

// TransitionStatus меняет статус, только если текущий входит в from
func (r *SessionRepository) TransitionStatus(ctx context.Context, id int64, from []model.SessionStatus, to model.SessionStatus) (bool, error) {
	statuses := make([]string, len(from))
	for i, st := range from {
		statuses[i] = string(st)
	}

	query := `
		UPDATE sessions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	affected, err := r.ExecAffected(ctx, query, to, id, statuses)
	if err != nil {
		return false, fmt.Errorf("transition session status: %w", err)
	}

	return affected == 1, nil
}

// MarkStarted сохраняет комнату и токен и переводит scheduled -> in-progress
func (r *SessionRepository) MarkStarted(ctx context.Context, id int64, meetingURL, joinToken string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET status = 'in-progress', meeting_url = $1, join_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, meetingURL, joinToken, expiresAt, id)
	if err != nil {
		return false, fmt.Errorf("mark session started: %w", err)
	}

	return affected == 1, nil
}

// List возвращает сессии пользователя по фильтру, новые сверху (или ближайшие при Ascending)
func (r *SessionRepository) List(ctx context.Context, filter model.SessionFilter) ([]*model.Session, error) {
	var (
		where []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Role == model.RoleTutor {
		add("tutor_user_id = $%d", filter.UserID)
	} else {
		add("student_id = $%d", filter.UserID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.From != nil {
		add("scheduled_at >= $%d", *filter.From)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY scheduled_at %s, id %s LIMIT $%d`,
		sessionColumns, strings.Join(where, " AND "), order, order, len(args))

	return r.list(ctx, "list sessions", query, args...)
}

// ListSeries возвращает все сессии повторяющейся серии по возрастанию времени
func (r *SessionRepository) ListSeries(ctx context.Context, parentID int64) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE parent_session_id = $1
		ORDER BY scheduled_at
	`

	return r.list(ctx, "list series", query, parentID)
}

func (r *SessionRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.TutorID,
		&s.TutorUserID,
		&s.StudentID,
		&s.Subject,
		&s.ScheduledAt,
		&s.EndsAt,
		&s.DurationMinutes,
		&s.Status,
		&s.Notes,
		&s.MeetingURL,
		&s.JoinToken,
		&s.TokenExpiresAt,
		&s.RecurrencePattern,
		&s.RecurrenceEndDate,
		&s.ParentSessionID,
		&s.SequenceNumber,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
