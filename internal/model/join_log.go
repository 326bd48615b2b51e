package model

import "time"

// JoinLog запись аудита входа в комнату, только добавление
type JoinLog struct {
	ID            int64     `json:"id"`
	SessionID     int64     `json:"session_id"`
	UserID        *int64    `json:"user_id"` // nil для анонимного входа по токену
	TokenFragment string    `json:"token_fragment"`
	IP            string    `json:"ip"`
	UserAgent     string    `json:"user_agent"`
	CreatedAt     time.Time `json:"created_at"`
}
