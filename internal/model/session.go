package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in-progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

type RecurrencePattern string

const (
	RecurrenceDaily    RecurrencePattern = "daily"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
)

// Valid проверяет, что паттерн поддерживается
func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

type Session struct {
	ID              int64         `json:"id"`
	TutorID         int64         `json:"tutor_id"`
	TutorUserID     int64         `json:"tutor_user_id"` // владелец TutorProfile, денормализован для проверок
	StudentID       int64         `json:"student_id"`
	Subject         string        `json:"subject"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	EndsAt          time.Time     `json:"ends_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	MeetingURL      string        `json:"meeting_url,omitempty"`
	JoinToken       string        `json:"-"`
	TokenExpiresAt  *time.Time    `json:"token_expires_at,omitempty"`

	// Повторяющаяся серия
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time        `json:"recurrence_end_date,omitempty"`
	ParentSessionID   *int64            `json:"parent_session_id,omitempty"`
	SequenceNumber    int               `json:"sequence_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant - является ли пользователь репетитором или учеником сессии
func (s *Session) IsParticipant(userID int64) bool {
	return s.TutorUserID == userID || s.StudentID == userID
}

// SetSchedule обновляет начало, длительность и сохранённый конец вместе
func (s *Session) SetSchedule(start time.Time, durationMinutes int) {
	s.ScheduledAt = start
	s.DurationMinutes = durationMinutes
	s.EndsAt = start.Add(time.Duration(durationMinutes) * time.Minute)
}

// SessionRole сторона сессии для выборки
type SessionRole string

const (
	RoleTutor   SessionRole = "tutor"
	RoleStudent SessionRole = "student"
)

// SessionFilter параметры выборки сессий
type SessionFilter struct {
	UserID int64
	Role   SessionRole
	Status   SessionStatus   // пусто - любой статус
	Statuses []SessionStatus // дополнительно к Status: любой из перечисленных
	From     *time.Time
	Limit    int
	// Ascending - ближайшие сверху; по умолчанию новые сверху
	Ascending bool
}
