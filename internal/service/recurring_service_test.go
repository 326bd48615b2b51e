package service_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/stretchr/testify/require"
)

func TestExpandRecurrence(t *testing.T) {
	start := at(1, 10, 0)

	t.Run("weekly count", func(t *testing.T) {
		dates, err := service.ExpandRecurrence(start, model.RecurrenceWeekly, 4, nil)
		require.NoError(t, err)
		require.Equal(t, []time.Time{at(1, 10, 0), at(8, 10, 0), at(15, 10, 0), at(22, 10, 0)}, dates)
	})

	t.Run("end date bound first", func(t *testing.T) {
		end := at(4, 0, 0)
		dates, err := service.ExpandRecurrence(start, model.RecurrenceDaily, 10, &end)
		require.NoError(t, err)
		require.Len(t, dates, 3)
	})

	t.Run("end date inclusive", func(t *testing.T) {
		end := at(15, 10, 0)
		dates, err := service.ExpandRecurrence(start, model.RecurrenceBiweekly, 10, &end)
		require.NoError(t, err)
		require.Equal(t, []time.Time{at(1, 10, 0), at(15, 10, 0)}, dates)
	})

	t.Run("monthly calendar step", func(t *testing.T) {
		dates, err := service.ExpandRecurrence(start, model.RecurrenceMonthly, 3, nil)
		require.NoError(t, err)
		require.Equal(t, time.March, dates[2].Month())
		require.Equal(t, 1, dates[2].Day())
	})

	t.Run("defaults and cap", func(t *testing.T) {
		dates, err := service.ExpandRecurrence(start, model.RecurrenceWeekly, 0, nil)
		require.NoError(t, err)
		require.Len(t, dates, service.DefaultRecurrenceCount)

		dates, err = service.ExpandRecurrence(start, model.RecurrenceDaily, 1000, nil)
		require.NoError(t, err)
		require.Len(t, dates, service.MaxRecurrenceCount)

		// по умолчанию не дальше года
		dates, err = service.ExpandRecurrence(start, model.RecurrenceMonthly, 50, nil)
		require.NoError(t, err)
		require.Len(t, dates, 13)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := service.ExpandRecurrence(start, "yearly", 3, nil)
		require.ErrorIs(t, err, service.ErrValidation)

		before := start.Add(-time.Hour)
		_, err = service.ExpandRecurrence(start, model.RecurrenceDaily, 3, &before)
		require.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestCreateSeries(t *testing.T) {
	f := newFixture(t)
	tutorUser, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")

	sessions, err := f.series.CreateSeries(t.Context(), student.ID, service.RecurringRequest{
		TutorID:         tutor.ID,
		Subject:         "math",
		StartAt:         at(1, 10, 0),
		DurationMinutes: 60,
		Pattern:         model.RecurrenceWeekly,
		Count:           4,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	parentID := sessions[0].ID
	for i, s := range sessions {
		require.Equal(t, at(1+7*i, 10, 0), s.ScheduledAt)
		require.Equal(t, i+1, s.SequenceNumber)
		require.NotNil(t, s.ParentSessionID)
		require.Equal(t, parentID, *s.ParentSessionID)
		require.Equal(t, model.RecurrenceWeekly, s.RecurrencePattern)
		require.Equal(t, tutorUser.ID, s.TutorUserID)
	}

	listed, err := f.series.ListSeries(t.Context(), tutorUser.ID, parentID)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	require.Equal(t, parentID, listed[0].ID)

	created := f.notifier.ofType(model.NotificationRecurringCreated)
	require.Len(t, created, 2)
	require.Equal(t, 4, created[0].Count)

	_, err = f.series.ListSeries(t.Context(), f.user(t, "eve").ID, parentID)
	require.ErrorIs(t, err, service.ErrNotParticipant)
	_, err = f.series.ListSeries(t.Context(), student.ID, 999)
	require.ErrorIs(t, err, service.ErrSeriesNotFound)
}

func TestCreateSeries_ConflictRejectsWholeSeries(t *testing.T) {
	f := newFixture(t)
	_, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	// третья неделя занята
	f.adHoc(t, f.user(t, "carl").ID, tutor, at(15, 10, 30), 30)

	_, err := f.series.CreateSeries(ctx, student.ID, service.RecurringRequest{
		TutorID:         tutor.ID,
		Subject:         "math",
		StartAt:         at(1, 10, 0),
		DurationMinutes: 60,
		Pattern:         model.RecurrenceWeekly,
		Count:           4,
	})
	require.ErrorIs(t, err, service.ErrTimeConflict)

	list, err := f.sessions.List(ctx, student.ID, model.RoleStudent, "")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateSeries_Validation(t *testing.T) {
	f := newFixture(t)
	tutorUser, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	valid := service.RecurringRequest{
		TutorID: tutor.ID, Subject: "math", StartAt: at(1, 10, 0), DurationMinutes: 60,
		Pattern: model.RecurrenceDaily, Count: 3,
	}

	_, err := f.series.CreateSeries(ctx, tutorUser.ID, valid)
	require.ErrorIs(t, err, service.ErrSelfBooking)

	bad := valid
	bad.Pattern = "hourly"
	_, err = f.series.CreateSeries(ctx, student.ID, bad)
	require.ErrorIs(t, err, service.ErrValidation)

	bad = valid
	bad.StartAt = baseTime.Add(-24 * time.Hour)
	_, err = f.series.CreateSeries(ctx, student.ID, bad)
	require.ErrorIs(t, err, service.ErrValidation)

	bad = valid
	bad.DurationMinutes = 300
	_, err = f.series.CreateSeries(ctx, student.ID, bad)
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestCancelSeries_OnlyFuture(t *testing.T) {
	f := newFixture(t)
	_, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	sessions, err := f.series.CreateSeries(ctx, student.ID, service.RecurringRequest{
		TutorID:         tutor.ID,
		Subject:         "math",
		StartAt:         at(1, 10, 0),
		DurationMinutes: 60,
		Pattern:         model.RecurrenceWeekly,
		Count:           3,
	})
	require.NoError(t, err)

	// первая сессия уже прошла
	f.now = at(3, 12, 0)

	cancelled, err := f.series.CancelSeries(ctx, student.ID, sessions[0].ID)
	require.NoError(t, err)
	require.Equal(t, 2, cancelled)

	listed, err := f.series.ListSeries(ctx, student.ID, sessions[0].ID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusScheduled, listed[0].Status)
	require.Equal(t, model.SessionStatusCancelled, listed[1].Status)
	require.Equal(t, model.SessionStatusCancelled, listed[2].Status)
}
