package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	defer r.s.lock(ctx)()

	session.ID = r.s.id()
	session.CreatedAt = r.s.now()
	session.UpdatedAt = session.CreatedAt
	r.s.data.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	defer r.s.lock(ctx)()

	session, ok := r.s.data.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *model.Session) (bool, error) {
	defer r.s.lock(ctx)()

	existing, ok := r.s.data.sessions[session.ID]
	if !ok || existing.Status != model.SessionStatusScheduled {
		return false, nil
	}
	existing.Subject = session.Subject
	existing.ScheduledAt = session.ScheduledAt
	existing.EndsAt = session.EndsAt
	existing.DurationMinutes = session.DurationMinutes
	existing.Notes = session.Notes
	existing.ParentSessionID = session.ParentSessionID
	existing.UpdatedAt = r.s.now()
	session.UpdatedAt = existing.UpdatedAt
	r.s.data.sessions[session.ID] = existing
	return true, nil
}

func (r *SessionRepository) HasConflict(ctx context.Context, userIDs []int64, start, end time.Time, excludeID int64) (bool, error) {
	defer r.s.lock(ctx)()

	for _, session := range r.s.data.sessions {
		if session.ID == excludeID || session.Status == model.SessionStatusCancelled {
			continue
		}
		if !slices.Contains(userIDs, session.TutorUserID) && !slices.Contains(userIDs, session.StudentID) {
			continue
		}
		if model.Overlaps(session.ScheduledAt, session.EndsAt, start, end) {
			return true, nil
		}
	}
	return false, nil
}

// LockParticipants ничего не делает: транзакция уже держит лок хранилища
func (r *SessionRepository) LockParticipants(ctx context.Context, userIDs ...int64) error {
	return nil
}

func (r *SessionRepository) TransitionStatus(ctx context.Context, id int64, from []model.SessionStatus, to model.SessionStatus) (bool, error) {
	defer r.s.lock(ctx)()

	session, ok := r.s.data.sessions[id]
	if !ok || !slices.Contains(from, session.Status) {
		return false, nil
	}
	session.Status = to
	session.UpdatedAt = r.s.now()
	r.s.data.sessions[id] = session
	return true, nil
}

func (r *SessionRepository) MarkStarted(ctx context.Context, id int64, meetingURL, joinToken string, expiresAt time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	session, ok := r.s.data.sessions[id]
	if !ok || session.Status != model.SessionStatusScheduled {
		return false, nil
	}
	session.Status = model.SessionStatusInProgress
	session.MeetingURL = meetingURL
	session.JoinToken = joinToken
	session.TokenExpiresAt = &expiresAt
	session.UpdatedAt = r.s.now()
	r.s.data.sessions[id] = session
	return true, nil
}

func (r *SessionRepository) List(ctx context.Context, filter model.SessionFilter) ([]*model.Session, error) {
	defer r.s.lock(ctx)()

	var out []*model.Session
	for _, session := range r.s.data.sessions {
		if filter.Role == model.RoleTutor {
			if session.TutorUserID != filter.UserID {
				continue
			}
		} else if session.StudentID != filter.UserID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, session.Status) {
			continue
		}
		if filter.From != nil && session.ScheduledAt.Before(*filter.From) {
			continue
		}
		out = append(out, &session)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.Ascending {
			a, b = b, a
		}
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ScheduledAt.After(b.ScheduledAt)
		}
		return a.ID > b.ID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) ListSeries(ctx context.Context, parentID int64) ([]*model.Session, error) {
	defer r.s.lock(ctx)()

	var out []*model.Session
	for _, session := range r.s.data.sessions {
		if session.ParentSessionID != nil && *session.ParentSessionID == parentID {
			out = append(out, &session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}
