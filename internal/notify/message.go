package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

// Message конверт, публикуемый в брокеры
type Message struct {
	UserID int64 `json:"user_id"`
	model.Notification
}

// Text форматирует уведомление для чата
func Text(n model.Notification) string {
	var b strings.Builder

	switch n.Type {
	case model.NotificationSessionBooked:
		b.WriteString("📅 Новое занятие")
	case model.NotificationSessionUpdated:
		b.WriteString("✏️ Занятие изменено")
	case model.NotificationSessionCancelled:
		b.WriteString("❌ Занятие отменено")
	case model.NotificationSessionCompleted:
		b.WriteString("✅ Занятие завершено")
	case model.NotificationSessionStarted:
		b.WriteString("🎥 Занятие началось")
	case model.NotificationRecurringCreated:
		b.WriteString("🔁 Создана серия занятий")
	default:
		b.WriteString(string(n.Type))
	}

	if n.Subject != "" {
		fmt.Fprintf(&b, ": %s", n.Subject)
	}
	if n.ScheduledAt != nil {
		fmt.Fprintf(&b, "\n🕐 %s", n.ScheduledAt.Format("02.01.2006 15:04 MST"))
	}
	if n.Count > 0 {
		fmt.Fprintf(&b, "\nКоличество: %d", n.Count)
	}
	if n.MeetingURL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", n.MeetingURL)
	}
	if n.JoinToken != "" {
		fmt.Fprintf(&b, "\n🔑 Токен: %s", n.JoinToken)
	}
	if n.ExpiresAt != nil {
		fmt.Fprintf(&b, "\nТокен действует до %s", n.ExpiresAt.Format(time.RFC3339))
	}

	return b.String()
}
