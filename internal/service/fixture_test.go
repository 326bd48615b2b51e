package service_test

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/repository/memory"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sentNotification struct {
	UserID int64
	model.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(userID int64, notification model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Notification: notification})
}

func (n *recordingNotifier) ofType(kind model.NotificationType) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentNotification
	for _, s := range n.sent {
		if s.Type == kind {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	now      time.Time
	store    *memory.Store
	notifier *recordingNotifier
	signer   *token.Signer
	users    *service.UserService
	tutors   *service.TutorService
	slots    *service.SlotService
	booking  *service.BookingService
	sessions *service.SessionService
	series   *service.RecurringService
	meeting  *service.MeetingService
}

// 2024-01-01 - понедельник
var baseTime = time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, meetingCfg ...service.MeetingConfig) *fixture {
	t.Helper()

	f := &fixture{
		now:      baseTime,
		store:    memory.NewStore(),
		notifier: &recordingNotifier{},
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)

	signer, err := token.NewSigner("test-secret", "tutor-sessions")
	require.NoError(t, err)
	f.signer = signer.WithClock(clock)

	cfg := service.MeetingConfig{BaseURL: "https://meet.example.org/"}
	if len(meetingCfg) > 0 {
		cfg = meetingCfg[0]
	}

	logger := zaptest.NewLogger(t)
	repos := service.Repositories{
		Tx:           f.store,
		Users:        f.store.Users(),
		Tutors:       f.store.Tutors(),
		Slots:        f.store.Slots(),
		Sessions:     f.store.Sessions(),
		IssuedTokens: f.store.IssuedTokens(),
		JoinLogs:     f.store.JoinLogs(),
	}

	f.users = service.NewUserService(repos.Users, logger)
	f.tutors = service.NewTutorService(repos, logger)
	f.slots = service.NewSlotService(repos, time.UTC, logger)
	f.slots.SetClock(clock)
	f.booking = service.NewBookingService(repos, f.notifier, logger)
	f.booking.SetClock(clock)
	f.sessions = service.NewSessionService(repos, f.notifier, logger)
	f.sessions.SetClock(clock)
	f.series = service.NewRecurringService(repos, f.notifier, logger)
	f.series.SetClock(clock)
	f.meeting = service.NewMeetingService(repos, f.signer, f.notifier, cfg, logger)
	f.meeting.SetClock(clock)

	return f
}

var telegramSeq int64

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	telegramSeq++
	u, err := f.users.RegisterTelegramUser(t.Context(), 1000+telegramSeq, name, name, "")
	require.NoError(t, err)
	return u
}

func (f *fixture) tutor(t *testing.T, name string) (*model.User, *model.TutorProfile) {
	t.Helper()
	u := f.user(t, name)
	p, err := f.tutors.BecomeTutor(t.Context(), u.ID, "", []string{"math"})
	require.NoError(t, err)
	return u, p
}

func (f *fixture) adHoc(t *testing.T, student int64, tutor *model.TutorProfile, at time.Time, minutes int) *model.Session {
	t.Helper()
	s, err := f.booking.BookAdHoc(t.Context(), student, service.AdHocRequest{
		TutorID:         tutor.ID,
		Subject:         "math",
		ScheduledAt:     at,
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	return s
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func userName(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

// joinLogs возвращает журнал входов, старые сверху
func (f *fixture) joinLogs(t *testing.T) []*model.JoinLog {
	t.Helper()
	logs, err := f.store.JoinLogs().ListRecent(t.Context(), 0)
	require.NoError(t, err)
	slices.Reverse(logs)
	return logs
}
