package controller

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "45 мин", formatDuration(45))
	require.Equal(t, "1 ч", formatDuration(60))
	require.Equal(t, "1 ч 30 мин", formatDuration(90))
}

func TestGetSessionStatusDisplay(t *testing.T) {
	require.Equal(t, "Идёт", GetSessionStatusDisplay(model.SessionStatusInProgress).Text)
	require.Equal(t, "❓", GetSessionStatusDisplay("unknown").Emoji)
}

func TestFormatSessionList(t *testing.T) {
	require.Contains(t, formatSessionList(1, nil), "нет")

	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	sessions := []*model.Session{
		{ID: 7, TutorUserID: 1, StudentID: 2, Subject: "math", ScheduledAt: at, DurationMinutes: 60, Status: model.SessionStatusScheduled},
		{ID: 8, TutorUserID: 3, StudentID: 1, Subject: "physics", ScheduledAt: at.Add(2 * time.Hour), DurationMinutes: 45,
			Status: model.SessionStatusInProgress, MeetingURL: "https://meet.example.org/session-8-abc"},
	}

	text := formatSessionList(1, sessions)
	require.Contains(t, text, "#7 math (репетитор)")
	require.Contains(t, text, "#8 physics (ученик)")
	require.Contains(t, text, "02.01.2024 10:00, 1 ч")
	require.Contains(t, text, "/sessions/8/join")
	require.NotContains(t, text, "/sessions/7/join")
}
