package memory_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, repo *memory.SessionRepository, start time.Time) *model.Session {
	t.Helper()
	s := &model.Session{TutorID: 1, TutorUserID: 10, StudentID: 20, Subject: "math", Status: model.SessionStatusScheduled}
	s.SetSchedule(start, 60)
	require.NoError(t, repo.Create(t.Context(), s))
	return s
}

func TestSessionUpdate_OnlyWhileScheduled(t *testing.T) {
	repo := memory.NewStore().Sessions()
	ctx := t.Context()
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	s := newSession(t, repo, start)
	s.Subject = "geometry"
	ok, err := repo.Update(ctx, s)
	require.NoError(t, err)
	require.True(t, ok)

	started, err := repo.MarkStarted(ctx, s.ID, "https://meet.example.org/room", "tok", start.Add(6*time.Hour))
	require.NoError(t, err)
	require.True(t, started)

	// перенос уже начатой сессии не проходит
	s.SetSchedule(start.Add(24*time.Hour), 60)
	ok, err = repo.Update(ctx, s)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, start, stored.ScheduledAt)

	ok, err = repo.Update(ctx, &model.Session{ID: 999})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionList_AscendingWithStatuses(t *testing.T) {
	repo := memory.NewStore().Sessions()
	ctx := t.Context()
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, newSession(t, repo, start.Add(time.Duration(i)*time.Hour)).ID)
	}
	ok, err := repo.TransitionStatus(ctx, ids[0], []model.SessionStatus{model.SessionStatusScheduled}, model.SessionStatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	nearest, err := repo.List(ctx, model.SessionFilter{
		UserID:    20,
		Role:      model.RoleStudent,
		Statuses:  []model.SessionStatus{model.SessionStatusScheduled, model.SessionStatusInProgress},
		Limit:     2,
		Ascending: true,
	})
	require.NoError(t, err)
	require.Len(t, nearest, 2)
	require.Equal(t, ids[1], nearest[0].ID)
	require.Equal(t, ids[2], nearest[1].ID)

	latest, err := repo.List(ctx, model.SessionFilter{UserID: 10, Role: model.RoleTutor, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, ids[4], latest[0].ID)
}
