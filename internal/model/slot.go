package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusDisabled  SlotStatus = "disabled"
	SlotStatusExpired   SlotStatus = "expired"
)

type Slot struct {
	ID              int64      `json:"id"`
	TutorID         int64      `json:"tutor_id"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           time.Time  `json:"end_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          SlotStatus `json:"status"`
	BookedBy        *int64     `json:"booked_by"`  // nil пока слот не забронирован
	SessionID       *int64     `json:"session_id"` // заполняется при бронировании
	CreatedAt       time.Time  `json:"created_at"`
}

// Blocks - участвует ли слот в проверке пересечений у репетитора.
// Отключённые и истёкшие слоты новые не блокируют.
func (s *Slot) Blocks() bool {
	return s.Status == SlotStatusAvailable || s.Status == SlotStatusBooked
}

// Overlaps проверяет пересечение полуоткрытых интервалов [start, end).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
