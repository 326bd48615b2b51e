package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/stretchr/testify/require"
)

func createSlots(t *testing.T, f *fixture, tutorUser *model.User, date, start, end string, minutes int) []*model.Slot {
	t.Helper()
	res, err := f.slots.CreateSlots(t.Context(), tutorUser.ID, service.CreateSlotsRequest{
		Date: date, StartTime: start, EndTime: end, SlotDurationMinutes: minutes,
	})
	require.NoError(t, err)
	return res.Slots
}

func TestBookSlot(t *testing.T) {
	f := newFixture(t)
	tutorUser, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	slot := createSlots(t, f, tutorUser, "2024-01-02", "10:00", "11:00", 60)[0]

	res, err := f.booking.BookSlot(t.Context(), student.ID, slot.ID, " algebra ", "chapter 3")
	require.NoError(t, err)

	require.Equal(t, model.SlotStatusBooked, res.Slot.Status)
	require.Equal(t, student.ID, *res.Slot.BookedBy)
	require.Equal(t, res.Session.ID, *res.Slot.SessionID)

	s := res.Session
	require.Equal(t, tutor.ID, s.TutorID)
	require.Equal(t, tutorUser.ID, s.TutorUserID)
	require.Equal(t, student.ID, s.StudentID)
	require.Equal(t, "algebra", s.Subject)
	require.Equal(t, slot.StartAt, s.ScheduledAt)
	require.Equal(t, slot.EndAt, s.EndsAt)
	require.Equal(t, 60, s.DurationMinutes)
	require.Equal(t, model.SessionStatusScheduled, s.Status)

	stored, err := f.store.Slots().GetByID(t.Context(), slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusBooked, stored.Status)
	require.Equal(t, res.Session.ID, *stored.SessionID)

	booked := f.notifier.ofType(model.NotificationSessionBooked)
	require.Len(t, booked, 2)
	require.ElementsMatch(t, []int64{tutorUser.ID, student.ID}, []int64{booked[0].UserID, booked[1].UserID})

	_, err = f.booking.BookSlot(t.Context(), f.user(t, "carl").ID, slot.ID, "algebra", "")
	require.ErrorIs(t, err, service.ErrSlotUnavailable)
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestBookSlot_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	tutorUser, _ := f.tutor(t, "anna")
	slot := createSlots(t, f, tutorUser, "2024-01-02", "10:00", "11:00", 60)[0]

	const racers = 8
	students := make([]*model.User, racers)
	for i := range students {
		students[i] = f.user(t, userName("student", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for _, student := range students {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			<-start
			_, err := f.booking.BookSlot(t.Context(), studentID, slot.ID, "math", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrSlotUnavailable):
				conflicts++
			}
		}(student.ID)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, racers-1, conflicts)

	total := 0
	for _, student := range students {
		list, err := f.sessions.List(t.Context(), student.ID, model.RoleStudent, "")
		require.NoError(t, err)
		total += len(list)
	}
	require.Equal(t, 1, total)
}

func TestBookSlot_Errors(t *testing.T) {
	f := newFixture(t)
	tutorUser, _ := f.tutor(t, "anna")
	student := f.user(t, "bob")
	slot := createSlots(t, f, tutorUser, "2024-01-02", "10:00", "11:00", 60)[0]
	ctx := t.Context()

	_, err := f.booking.BookSlot(ctx, student.ID, 404, "math", "")
	require.ErrorIs(t, err, service.ErrSlotNotFound)

	_, err = f.booking.BookSlot(ctx, tutorUser.ID, slot.ID, "math", "")
	require.ErrorIs(t, err, service.ErrSelfBooking)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.booking.BookSlot(ctx, student.ID, slot.ID, "  ", "")
	require.ErrorIs(t, err, service.ErrValidation)

	f.now = at(2, 10, 30)
	_, err = f.booking.BookSlot(ctx, student.ID, slot.ID, "math", "")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestBookSlot_StudentConflictAcrossPaths(t *testing.T) {
	f := newFixture(t)
	annaUser, _ := f.tutor(t, "anna")
	_, olga := f.tutor(t, "olga")
	student := f.user(t, "bob")

	// ad-hoc у другого учителя пересекается со слотом
	f.adHoc(t, student.ID, olga, at(2, 10, 30), 60)

	slot := createSlots(t, f, annaUser, "2024-01-02", "10:00", "11:00", 60)[0]
	_, err := f.booking.BookSlot(t.Context(), student.ID, slot.ID, "math", "")
	require.ErrorIs(t, err, service.ErrTimeConflict)

	stored, err := f.store.Slots().GetByID(t.Context(), slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusAvailable, stored.Status)
}

func TestBookSlot_TutorConflict(t *testing.T) {
	f := newFixture(t)
	annaUser, anna := f.tutor(t, "anna")
	f.adHoc(t, f.user(t, "bob").ID, anna, at(2, 10, 0), 60)

	slot := createSlots(t, f, annaUser, "2024-01-02", "10:30", "11:30", 60)[0]
	_, err := f.booking.BookSlot(t.Context(), f.user(t, "carl").ID, slot.ID, "math", "")
	require.ErrorIs(t, err, service.ErrTimeConflict)
}

func TestBookAdHoc(t *testing.T) {
	f := newFixture(t)
	tutorUser, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	s := f.adHoc(t, student.ID, tutor, at(3, 15, 0), 90)
	require.Equal(t, at(3, 16, 30), s.EndsAt)
	require.Equal(t, tutorUser.ID, s.TutorUserID)

	// касание границ не конфликт
	f.adHoc(t, student.ID, tutor, at(3, 16, 30), 30)

	_, err := f.booking.BookAdHoc(ctx, student.ID, service.AdHocRequest{
		TutorID: tutor.ID, Subject: "math", ScheduledAt: at(3, 16, 0), DurationMinutes: 30,
	})
	require.ErrorIs(t, err, service.ErrTimeConflict)

	// конфликт учителя с другим студентом
	_, err = f.booking.BookAdHoc(ctx, f.user(t, "carl").ID, service.AdHocRequest{
		TutorID: tutor.ID, Subject: "math", ScheduledAt: at(3, 15, 30), DurationMinutes: 30,
	})
	require.ErrorIs(t, err, service.ErrTimeConflict)
}

func TestBookAdHoc_CancelledDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	_, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")

	s := f.adHoc(t, student.ID, tutor, at(3, 15, 0), 60)
	_, err := f.sessions.Cancel(t.Context(), student.ID, s.ID)
	require.NoError(t, err)

	f.adHoc(t, student.ID, tutor, at(3, 15, 0), 60)
}

func TestBookAdHoc_Errors(t *testing.T) {
	f := newFixture(t)
	tutorUser, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	valid := service.AdHocRequest{TutorID: tutor.ID, Subject: "math", ScheduledAt: at(3, 15, 0), DurationMinutes: 60}

	_, err := f.booking.BookAdHoc(ctx, tutorUser.ID, valid)
	require.ErrorIs(t, err, service.ErrSelfBooking)

	missing := valid
	missing.TutorID = 999
	_, err = f.booking.BookAdHoc(ctx, student.ID, missing)
	require.ErrorIs(t, err, service.ErrTutorNotFound)

	for _, minutes := range []int{0, 29, 241} {
		req := valid
		req.DurationMinutes = minutes
		_, err = f.booking.BookAdHoc(ctx, student.ID, req)
		require.ErrorIs(t, err, service.ErrValidation)
	}

	past := valid
	past.ScheduledAt = baseTime.Add(-time.Hour)
	_, err = f.booking.BookAdHoc(ctx, student.ID, past)
	require.ErrorIs(t, err, service.ErrValidation)
}
