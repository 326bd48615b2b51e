package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type TutorRepository struct{ s *Store }

func (r *TutorRepository) Create(ctx context.Context, profile *model.TutorProfile) error {
	defer r.s.lock(ctx)()

	for _, p := range r.s.data.tutors {
		if p.UserID == profile.UserID {
			return fmt.Errorf("create tutor profile: user %d already has a profile", profile.UserID)
		}
	}

	profile.ID = r.s.id()
	profile.CreatedAt = r.s.now()
	stored := *profile
	stored.Subjects = append([]string(nil), profile.Subjects...)
	r.s.data.tutors[profile.ID] = stored
	return nil
}

func (r *TutorRepository) GetByID(ctx context.Context, id int64) (*model.TutorProfile, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.tutors[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *TutorRepository) GetByUserID(ctx context.Context, userID int64) (*model.TutorProfile, error) {
	defer r.s.lock(ctx)()

	for _, p := range r.s.data.tutors {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}
