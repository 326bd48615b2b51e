package model

import "time"

// TutorProfile создаётся, когда пользователь становится репетитором.
// Слоты и сессии ссылаются на него как на сторону репетитора.
type TutorProfile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Bio       string    `json:"bio"`
	Subjects  []string  `json:"subjects"`
	CreatedAt time.Time `json:"created_at"`
}
