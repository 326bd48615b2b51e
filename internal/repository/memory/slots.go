package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

type SlotRepository struct{ s *Store }

func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock(ctx)()

	slot.ID = r.s.id()
	slot.CreatedAt = r.s.now()
	r.s.data.slots[slot.ID] = *slot
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	defer r.s.lock(ctx)()

	slot, ok := r.s.data.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (r *SlotRepository) HasOverlap(ctx context.Context, tutorID int64, start, end time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	for _, slot := range r.s.data.slots {
		if slot.TutorID == tutorID && slot.Blocks() && model.Overlaps(slot.StartAt, slot.EndAt, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SlotRepository) ListAvailable(ctx context.Context, tutorID int64, from time.Time, limit int) ([]*model.Slot, error) {
	return r.filter(ctx, limit, func(slot model.Slot) bool {
		return slot.TutorID == tutorID && slot.Status == model.SlotStatusAvailable && !slot.StartAt.Before(from)
	}), nil
}

func (r *SlotRepository) ListByTutor(ctx context.Context, tutorID int64, limit int) ([]*model.Slot, error) {
	return r.filter(ctx, limit, func(slot model.Slot) bool {
		return slot.TutorID == tutorID
	}), nil
}

func (r *SlotRepository) ListBookedBy(ctx context.Context, userID int64, limit int) ([]*model.Slot, error) {
	return r.filter(ctx, limit, func(slot model.Slot) bool {
		return slot.BookedBy != nil && *slot.BookedBy == userID
	}), nil
}

func (r *SlotRepository) MarkBooked(ctx context.Context, slotID, userID int64) (bool, error) {
	defer r.s.lock(ctx)()

	slot, ok := r.s.data.slots[slotID]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return false, nil
	}
	slot.Status = model.SlotStatusBooked
	slot.BookedBy = &userID
	r.s.data.slots[slotID] = slot
	return true, nil
}

func (r *SlotRepository) AttachSession(ctx context.Context, slotID, sessionID int64) error {
	defer r.s.lock(ctx)()

	slot, ok := r.s.data.slots[slotID]
	if !ok {
		return fmt.Errorf("slot not found")
	}
	slot.SessionID = &sessionID
	r.s.data.slots[slotID] = slot
	return nil
}

func (r *SlotRepository) Disable(ctx context.Context, slotID int64) (bool, error) {
	defer r.s.lock(ctx)()

	slot, ok := r.s.data.slots[slotID]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return false, nil
	}
	slot.Status = model.SlotStatusDisabled
	r.s.data.slots[slotID] = slot
	return true, nil
}

func (r *SlotRepository) DeleteAvailable(ctx context.Context, slotID int64) (bool, error) {
	defer r.s.lock(ctx)()

	slot, ok := r.s.data.slots[slotID]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return false, nil
	}
	delete(r.s.data.slots, slotID)
	return true, nil
}

func (r *SlotRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var count int64
	for id, slot := range r.s.data.slots {
		if slot.EndAt.Before(now) && (slot.Status == model.SlotStatusAvailable || slot.Status == model.SlotStatusDisabled) {
			slot.Status = model.SlotStatusExpired
			r.s.data.slots[id] = slot
			count++
		}
	}
	return count, nil
}

// LockTutor ничего не делает: транзакция уже держит лок хранилища
func (r *SlotRepository) LockTutor(ctx context.Context, tutorID int64) error {
	return nil
}

func (r *SlotRepository) filter(ctx context.Context, limit int, keep func(model.Slot) bool) []*model.Slot {
	defer r.s.lock(ctx)()

	var out []*model.Slot
	for _, slot := range r.s.data.slots {
		if keep(slot) {
			out = append(out, &slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
