package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TutorRepository struct {
	*base.Repository
}

func NewTutorRepository(pool *pgxpool.Pool) *TutorRepository {
	return &TutorRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт профиль репетитора
func (r *TutorRepository) Create(ctx context.Context, profile *model.TutorProfile) error {
	subjects := profile.Subjects
	if subjects == nil {
		subjects = []string{}
	}

	query := `
		INSERT INTO tutor_profiles (user_id, bio, subjects)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, profile.UserID, profile.Bio, subjects).
		Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tutor profile: %w", err)
	}
	return nil
}

// GetByID получает профиль по ID
func (r *TutorRepository) GetByID(ctx context.Context, id int64) (*model.TutorProfile, error) {
	query := `SELECT id, user_id, bio, subjects, created_at FROM tutor_profiles WHERE id = $1`
	return r.getOne(ctx, "get tutor profile by id", query, id)
}

// GetByUserID получает профиль пользователя
func (r *TutorRepository) GetByUserID(ctx context.Context, userID int64) (*model.TutorProfile, error) {
	query := `SELECT id, user_id, bio, subjects, created_at FROM tutor_profiles WHERE user_id = $1`
	return r.getOne(ctx, "get tutor profile by user", query, userID)
}

func (r *TutorRepository) getOne(ctx context.Context, op, query string, arg int64) (*model.TutorProfile, error) {
	var profile model.TutorProfile
	err := r.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Bio,
		&profile.Subjects,
		&profile.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}
