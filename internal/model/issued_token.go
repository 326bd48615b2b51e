package model

import "time"

// IssuedToken короткоживущий одноразовый токен входа
type IssuedToken struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable - токен не использован и не истёк на момент now
func (t *IssuedToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
