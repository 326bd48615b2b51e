package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

const slotColumns = `id, tutor_id, start_at, end_at, duration_minutes, status, booked_by, session_id, created_at`

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (tutor_id, start_at, end_at, duration_minutes, status, booked_by, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.TutorID,
		slot.StartAt,
		slot.EndAt,
		slot.DurationMinutes,
		slot.Status,
		slot.BookedBy,
		slot.SessionID,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// HasOverlap проверяет пересечение [start, end) с активными слотами репетитора
func (r *SlotRepository) HasOverlap(ctx context.Context, tutorID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM slots
			WHERE tutor_id = $1
			  AND status NOT IN ('disabled', 'expired')
			  AND start_at < $3
			  AND end_at > $2
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, tutorID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}

	return exists, nil
}

// ListAvailable возвращает свободные слоты репетитора, начинающиеся не раньше from
func (r *SlotRepository) ListAvailable(ctx context.Context, tutorID int64, from time.Time, limit int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE tutor_id = $1
		  AND status = 'available'
		  AND start_at >= $2
		ORDER BY start_at
		LIMIT $3
	`

	return r.list(ctx, "list available slots", query, tutorID, from, limit)
}

// ListByTutor возвращает все слоты репетитора
func (r *SlotRepository) ListByTutor(ctx context.Context, tutorID int64, limit int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE tutor_id = $1
		ORDER BY start_at
		LIMIT $2
	`

	return r.list(ctx, "list slots by tutor", query, tutorID, limit)
}

// ListBookedBy возвращает слоты, забронированные пользователем
func (r *SlotRepository) ListBookedBy(ctx context.Context, userID int64, limit int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE booked_by = $1
		ORDER BY start_at
		LIMIT $2
	`

	return r.list(ctx, "list booked slots", query, userID, limit)
}

// MarkBooked переводит слот available -> booked. Возвращает false, если слот уже занят.
func (r *SlotRepository) MarkBooked(ctx context.Context, slotID, userID int64) (bool, error) {
	query := `
		UPDATE slots
		SET status = 'booked', booked_by = $1
		WHERE id = $2 AND status = 'available'
	`

	affected, err := r.ExecAffected(ctx, query, userID, slotID)
	if err != nil {
		return false, fmt.Errorf("book slot: %w", err)
	}

	return affected == 1, nil
}

// AttachSession связывает слот с созданной сессией
func (r *SlotRepository) AttachSession(ctx context.Context, slotID, sessionID int64) error {
	affected, err := r.ExecAffected(ctx, `UPDATE slots SET session_id = $1 WHERE id = $2`, sessionID, slotID)
	if err != nil {
		return fmt.Errorf("attach session to slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("slot not found")
	}
	return nil
}

// Disable переводит свободный слот в disabled
func (r *SlotRepository) Disable(ctx context.Context, slotID int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `UPDATE slots SET status = 'disabled' WHERE id = $1 AND status = 'available'`, slotID)
	if err != nil {
		return false, fmt.Errorf("disable slot: %w", err)
	}
	return affected == 1, nil
}

// DeleteAvailable удаляет слот, только если он ещё свободен
func (r *SlotRepository) DeleteAvailable(ctx context.Context, slotID int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1 AND status = 'available'`, slotID)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	return affected == 1, nil
}

// ExpireEnded переводит завершившиеся свободные и отключённые слоты в expired
func (r *SlotRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE slots
		SET status = 'expired'
		WHERE end_at < $1
		  AND status IN ('available', 'disabled')
	`

	affected, err := r.ExecAffected(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire slots: %w", err)
	}
	return affected, nil
}

// LockTutor сериализует генерацию слотов одного репетитора
func (r *SlotRepository) LockTutor(ctx context.Context, tutorID int64) error {
	return r.LockKeys(ctx, lockNamespaceTutorSlots, tutorID)
}

func (r *SlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.TutorID,
		&slot.StartAt,
		&slot.EndAt,
		&slot.DurationMinutes,
		&slot.Status,
		&slot.BookedBy,
		&slot.SessionID,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
