package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"go.uber.org/zap"
)

type TutorService struct {
	tx        TxManager
	userRepo  UserRepository
	tutorRepo TutorRepository
	logger    *zap.Logger
}

func NewTutorService(repos Repositories, logger *zap.Logger) *TutorService {
	return &TutorService{
		tx:        repos.Tx,
		userRepo:  repos.Users,
		tutorRepo: repos.Tutors,
		logger:    logger,
	}
}

// BecomeTutor создаёт профиль учителя. Повторный вызов возвращает существующий профиль.
func (s *TutorService) BecomeTutor(ctx context.Context, userID int64, bio string, subjects []string) (*model.TutorProfile, error) {
	var profile *model.TutorProfile

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}

		existing, err := s.tutorRepo.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get tutor profile: %w", err)
		}
		if existing != nil {
			profile = existing
			return nil
		}

		profile = &model.TutorProfile{
			UserID:   userID,
			Bio:      strings.TrimSpace(bio),
			Subjects: cleanSubjects(subjects),
		}
		if err := s.tutorRepo.Create(ctx, profile); err != nil {
			return fmt.Errorf("create tutor profile: %w", err)
		}

		s.logger.Info("User became tutor",
			zap.Int64("user_id", userID),
			zap.Int64("tutor_id", profile.ID),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *TutorService) GetByUserID(ctx context.Context, userID int64) (*model.TutorProfile, error) {
	profile, err := s.tutorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get tutor profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotTutor
	}
	return profile, nil
}

func (s *TutorService) GetByID(ctx context.Context, tutorID int64) (*model.TutorProfile, error) {
	profile, err := s.tutorRepo.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor profile: %w", err)
	}
	if profile == nil {
		return nil, ErrTutorNotFound
	}
	return profile, nil
}

func cleanSubjects(subjects []string) []string {
	out := make([]string, 0, len(subjects))
	seen := make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" || seen[strings.ToLower(subject)] {
			continue
		}
		seen[strings.ToLower(subject)] = true
		out = append(out, subject)
	}
	return out
}
