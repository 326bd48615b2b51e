package model

import "time"

type NotificationType string

const (
	NotificationSessionBooked    NotificationType = "session_booked"
	NotificationSessionUpdated   NotificationType = "session_updated"
	NotificationSessionCancelled NotificationType = "session_cancelled"
	NotificationSessionCompleted NotificationType = "session_completed"
	NotificationSessionStarted   NotificationType = "session_started"
	NotificationRecurringCreated NotificationType = "recurring_sessions_created"
)

// Notification событие для одного пользователя
type Notification struct {
	Type        NotificationType `json:"type"`
	SessionID   int64            `json:"session_id"`
	Subject     string           `json:"subject,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	MeetingURL  string           `json:"meeting_url,omitempty"`
	JoinToken   string           `json:"join_token,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	Count       int              `json:"count,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
