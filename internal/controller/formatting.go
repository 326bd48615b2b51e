package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/start - Начать работу с ботом\n" +
	"/mysessions - Ближайшие занятия\n" +
	"/token - Получить токен для API\n" +
	"/help - Показать эту справку\n\n" +
	"Для репетиторов:\n" +
	"/becometutor - Создать профиль репетитора"

func welcomeText(user *model.User) string {
	return fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот для записи на занятия к репетиторам.\n"+
			"Уведомления о бронированиях и отменах будут приходить сюда.\n\n"+
			"Используйте /help для списка команд.",
		user.DisplayName(),
	)
}

// StatusDisplay представляет отображение статуса занятия
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetSessionStatusDisplay возвращает emoji и текст для статуса занятия
func GetSessionStatusDisplay(status model.SessionStatus) StatusDisplay {
	displays := map[model.SessionStatus]StatusDisplay{
		model.SessionStatusScheduled:  {"🗓", "Запланировано"},
		model.SessionStatusInProgress: {"🟢", "Идёт"},
		model.SessionStatusCompleted:  {"✔️", "Завершено"},
		model.SessionStatusCancelled:  {"❌", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

func formatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// formatDuration форматирует длительность в минутах
func formatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// formatSessionList показывает занятия с точки зрения userID: роль, время и ссылку если комната открыта
func formatSessionList(userID int64, sessions []*model.Session) string {
	if len(sessions) == 0 {
		return "📭 Ближайших занятий нет."
	}

	var sb strings.Builder
	sb.WriteString("📅 Ближайшие занятия:\n")
	for _, s := range sessions {
		display := GetSessionStatusDisplay(s.Status)
		role := "ученик"
		if s.TutorUserID == userID {
			role = "репетитор"
		}

		fmt.Fprintf(&sb, "\n%s #%d %s (%s)\n🕐 %s, %s\n📊 %s\n",
			display.Emoji, s.ID, s.Subject, role,
			formatDateTime(s.ScheduledAt), formatDuration(s.DurationMinutes),
			display.Text,
		)
		if s.MeetingURL != "" {
			fmt.Fprintf(&sb, "🔗 /sessions/%d/join\n", s.ID)
		}
	}
	return sb.String()
}
