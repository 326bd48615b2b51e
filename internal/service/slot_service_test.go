package service_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/stretchr/testify/require"
)

func TestCreateSlots_SplitsWindow(t *testing.T) {
	f := newFixture(t)
	u, tutor := f.tutor(t, "anna")

	res, err := f.slots.CreateSlots(t.Context(), u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Created)
	require.Empty(t, res.Message)

	for i, slot := range res.Slots {
		start := at(2, 10, 0).Add(time.Duration(i) * 30 * time.Minute)
		require.Equal(t, start, slot.StartAt)
		require.Equal(t, start.Add(30*time.Minute), slot.EndAt)
		require.Equal(t, tutor.ID, slot.TutorID)
		require.Equal(t, model.SlotStatusAvailable, slot.Status)
	}
}

func TestCreateSlots_DropsPartialTail(t *testing.T) {
	f := newFixture(t)
	u, _ := f.tutor(t, "anna")

	res, err := f.slots.CreateSlots(t.Context(), u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "10:50", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
}

func TestCreateSlots_SkipsOverlaps(t *testing.T) {
	f := newFixture(t)
	u, tutor := f.tutor(t, "anna")
	ctx := t.Context()

	_, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)

	res, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "11:15", EndTime: "13:15", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	// 11:15 и 11:45 пересекаются, 12:15 и 12:45 нет
	require.Equal(t, 2, res.Created)
	require.Equal(t, at(2, 12, 15), res.Slots[0].StartAt)

	all, err := f.slots.ListAvailable(ctx, tutor.ID)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			require.False(t, model.Overlaps(all[i].StartAt, all[i].EndAt, all[j].StartAt, all[j].EndAt))
		}
	}

	again, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Zero(t, again.Created)
	require.NotEmpty(t, again.Message)
}

func TestCreateSlots_DisabledSlotDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	u, _ := f.tutor(t, "anna")
	ctx := t.Context()

	res, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "10:30", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.NoError(t, f.slots.Disable(ctx, u.ID, res.Slots[0].ID))

	res, err = f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "10:30", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
}

func TestCreateSlots_SkipsPast(t *testing.T) {
	f := newFixture(t)
	u, _ := f.tutor(t, "anna")
	f.now = at(2, 10, 45)

	res, err := f.slots.CreateSlots(t.Context(), u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)
	require.Equal(t, at(2, 11, 0), res.Slots[0].StartAt)
}

func TestCreateSlots_Validation(t *testing.T) {
	f := newFixture(t)
	u, _ := f.tutor(t, "anna")

	cases := map[string]service.CreateSlotsRequest{
		"bad date":       {Date: "02.01.2024", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30},
		"bad time":       {Date: "2024-01-02", StartTime: "10am", EndTime: "12:00", SlotDurationMinutes: 30},
		"end before":     {Date: "2024-01-02", StartTime: "12:00", EndTime: "10:00", SlotDurationMinutes: 30},
		"equal bounds":   {Date: "2024-01-02", StartTime: "10:00", EndTime: "10:00", SlotDurationMinutes: 30},
		"short duration": {Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 5},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.slots.CreateSlots(t.Context(), u.ID, req)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestCreateSlots_RequiresTutor(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "bob")

	_, err := f.slots.CreateSlots(t.Context(), student.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30,
	})
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestSlotOwnerActions(t *testing.T) {
	f := newFixture(t)
	u, _ := f.tutor(t, "anna")
	other, _ := f.tutor(t, "olga")
	ctx := t.Context()

	res, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "11:00", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	first, second := res.Slots[0], res.Slots[1]

	require.ErrorIs(t, f.slots.Disable(ctx, other.ID, first.ID), service.ErrNotSlotOwner)
	require.ErrorIs(t, f.slots.Disable(ctx, u.ID, 999), service.ErrSlotNotFound)

	require.NoError(t, f.slots.Disable(ctx, u.ID, first.ID))
	require.ErrorIs(t, f.slots.Disable(ctx, u.ID, first.ID), service.ErrConflict)
	require.ErrorIs(t, f.slots.Delete(ctx, u.ID, first.ID), service.ErrConflict)

	require.NoError(t, f.slots.Delete(ctx, u.ID, second.ID))
	require.ErrorIs(t, f.slots.Delete(ctx, u.ID, second.ID), service.ErrSlotNotFound)

	mine, err := f.slots.ListMine(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, model.SlotStatusDisabled, mine[0].Status)
}

func TestExpireEnded(t *testing.T) {
	f := newFixture(t)
	u, tutor := f.tutor(t, "anna")
	student := f.user(t, "bob")
	ctx := t.Context()

	res, err := f.slots.CreateSlots(ctx, u.ID, service.CreateSlotsRequest{
		Date: "2024-01-02", StartTime: "10:00", EndTime: "11:30", SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	require.NoError(t, f.slots.Disable(ctx, u.ID, res.Slots[1].ID))
	_, err = f.booking.BookSlot(ctx, student.ID, res.Slots[2].ID, "math", "")
	require.NoError(t, err)

	f.now = at(2, 12, 0)
	count, err := f.slots.ExpireEnded(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	mine, err := f.slots.ListMine(ctx, u.ID)
	require.NoError(t, err)
	statuses := map[model.SlotStatus]int{}
	for _, slot := range mine {
		statuses[slot.Status]++
	}
	require.Equal(t, 2, statuses[model.SlotStatusExpired])
	require.Equal(t, 1, statuses[model.SlotStatusBooked])

	available, err := f.slots.ListAvailable(ctx, tutor.ID)
	require.NoError(t, err)
	require.Empty(t, available)
}
