package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	earlyStartAllowance = 15 * time.Minute
	maxStartDelay       = 4 * time.Hour
	meetingTokenTTL     = 6 * time.Hour
	joinTokenTTL        = 15 * time.Minute

	joinLogLimit = 200
)

type MeetingConfig struct {
	BaseURL         string
	AllowEarlyStart bool // операторский флаг, каждое использование логируется
}

type StartResult struct {
	MeetingURL string    `json:"meeting_url"`
	JoinToken  string    `json:"join_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type JoinTokenResult struct {
	JoinToken string    `json:"join_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JoinRequest одна попытка войти в комнату
type JoinRequest struct {
	SessionID    int64
	Token        string
	BearerUserID *int64 // nil при входе по ссылке без авторизации
	IP           string
	UserAgent    string
}

// StartWindow возвращает интервал, в котором сессию можно начать
func StartWindow(scheduledAt time.Time) (opens, closes time.Time) {
	return scheduledAt.Add(-earlyStartAllowance), scheduledAt.Add(maxStartDelay)
}

type MeetingService struct {
	clock
	tx          TxManager
	userRepo    UserRepository
	sessionRepo SessionRepository
	tokenRepo   IssuedTokenRepository
	joinLogRepo JoinLogRepository
	signer      TokenSigner
	notifier    Notifier
	cfg         MeetingConfig
	logger      *zap.Logger
}

func NewMeetingService(repos Repositories, signer TokenSigner, notifier Notifier, cfg MeetingConfig, logger *zap.Logger) *MeetingService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &MeetingService{
		clock:       systemClock(),
		tx:          repos.Tx,
		userRepo:    repos.Users,
		sessionRepo: repos.Sessions,
		tokenRepo:   repos.IssuedTokens,
		joinLogRepo: repos.JoinLogs,
		signer:      signer,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start открывает комнату. Повторный вызов для уже начатой сессии возвращает ту же комнату.
func (s *MeetingService) Start(ctx context.Context, userID, sessionID int64) (*StartResult, error) {
	session, err := loadSession(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TutorUserID != userID {
		return nil, ErrOnlyTutor
	}

	if session.Status != model.SessionStatusScheduled && session.Status != model.SessionStatusInProgress {
		return nil, ErrInvalidState
	}

	// окно проверяется и для повторного вызова: после закрытия комнату не отдаём
	now := s.now()
	opens, closes := StartWindow(session.ScheduledAt)
	if now.After(closes) {
		return nil, ErrWindowPassed
	}
	if existing := startedResult(session); existing != nil {
		return existing, nil
	}
	if session.Status != model.SessionStatusScheduled {
		return nil, ErrInvalidState
	}

	if now.Before(opens) {
		if !s.cfg.AllowEarlyStart {
			return nil, ErrTooEarly
		}
		s.logger.Warn("Session started before its window because ALLOW_EARLY_START is set",
			zap.Int64("session_id", sessionID),
			zap.Time("window_opens", opens),
		)
	}

	meetingURL := fmt.Sprintf("%s/session-%d-%s", s.cfg.BaseURL, session.ID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])

	joinToken, expiresAt, err := s.signer.Sign(token.Claims{
		UserID:    userID,
		SessionID: session.ID,
		Purpose:   token.PurposeMeeting,
	}, meetingTokenTTL)
	if err != nil {
		return nil, err
	}

	started, err := s.sessionRepo.MarkStarted(ctx, session.ID, meetingURL, joinToken, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("mark session started: %w", err)
	}
	if !started {
		// параллельный старт успел раньше
		session, err = loadSession(ctx, s.sessionRepo, sessionID)
		if err != nil {
			return nil, err
		}
		if existing := startedResult(session); existing != nil {
			return existing, nil
		}
		return nil, ErrInvalidState
	}

	session.Status = model.SessionStatusInProgress
	session.MeetingURL = meetingURL
	session.JoinToken = joinToken
	session.TokenExpiresAt = &expiresAt

	s.logger.Info("Session started",
		zap.Int64("session_id", session.ID),
		zap.String("meeting_url", meetingURL),
	)

	n := sessionNotification(model.NotificationSessionStarted, session, now)
	n.MeetingURL = meetingURL
	n.JoinToken = joinToken
	n.ExpiresAt = &expiresAt
	notifyParticipants(s.notifier, session, n)

	return &StartResult{MeetingURL: meetingURL, JoinToken: joinToken, ExpiresAt: expiresAt}, nil
}

func startedResult(session *model.Session) *StartResult {
	if session.Status != model.SessionStatusInProgress || session.MeetingURL == "" {
		return nil
	}
	result := &StartResult{MeetingURL: session.MeetingURL, JoinToken: session.JoinToken}
	if session.TokenExpiresAt != nil {
		result.ExpiresAt = *session.TokenExpiresAt
	}
	return result
}

// IssueJoinToken выдаёт одноразовый токен на 15 минут для участника начатой сессии
func (s *MeetingService) IssueJoinToken(ctx context.Context, userID, sessionID int64) (*JoinTokenResult, error) {
	session, err := loadSession(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if session.MeetingURL == "" {
		return nil, ErrMeetingNotStarted
	}
	if session.Status == model.SessionStatusCancelled || session.Status == model.SessionStatusCompleted {
		return nil, ErrInvalidState
	}

	joinToken, expiresAt, err := s.signer.Sign(token.Claims{
		UserID:    userID,
		SessionID: sessionID,
		Purpose:   token.PurposeJoin,
	}, joinTokenTTL)
	if err != nil {
		return nil, err
	}

	issued := &model.IssuedToken{
		SessionID: sessionID,
		UserID:    userID,
		Token:     joinToken,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, issued); err != nil {
		return nil, fmt.Errorf("store issued token: %w", err)
	}

	s.logger.Info("Join token issued",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", userID),
		zap.Time("expires_at", expiresAt),
	)

	return &JoinTokenResult{JoinToken: joinToken, ExpiresAt: expiresAt}, nil
}

// Join авторизует вход в комнату и возвращает её URL. Порядок проверок:
// выданный одноразовый токен, затем токен комнаты, затем bearer-пользователь.
// Любой отказ возвращается как ErrJoinUnauthorized.
func (s *MeetingService) Join(ctx context.Context, req JoinRequest) (string, error) {
	session, err := loadSession(ctx, s.sessionRepo, req.SessionID)
	if err != nil {
		return "", err
	}
	if session.MeetingURL == "" {
		return "", ErrMeetingNotStarted
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		userID, authorized, err := s.authorizeJoin(ctx, session, req)
		if err != nil {
			return err
		}
		if !authorized {
			return ErrJoinUnauthorized
		}

		entry := &model.JoinLog{
			SessionID:     session.ID,
			UserID:        userID,
			TokenFragment: tokenFragment(req.Token),
			IP:            req.IP,
			UserAgent:     req.UserAgent,
		}
		if err := s.joinLogRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("write join log: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrForbidden) {
			return "", err
		}
		s.logger.Warn("Join rejected",
			zap.Int64("session_id", req.SessionID),
			zap.String("ip", req.IP),
		)
		return "", ErrJoinUnauthorized
	}

	s.logger.Info("Participant joined",
		zap.Int64("session_id", session.ID),
		zap.String("ip", req.IP),
	)

	return session.MeetingURL, nil
}

func (s *MeetingService) authorizeJoin(ctx context.Context, session *model.Session, req JoinRequest) (*int64, bool, error) {
	if req.Token != "" {
		issued, err := s.tokenRepo.GetByToken(ctx, req.Token)
		if err != nil {
			return nil, false, fmt.Errorf("lookup issued token: %w", err)
		}

		// известный одноразовый токен не откатывается к другим проверкам
		if issued != nil {
			if issued.SessionID != session.ID || !issued.Usable(s.now()) {
				return nil, false, nil
			}
			claims, err := s.signer.Verify(req.Token)
			if err != nil || claims.SessionID != session.ID {
				return nil, false, nil
			}
			marked, err := s.tokenRepo.MarkUsed(ctx, issued.ID)
			if err != nil {
				return nil, false, fmt.Errorf("mark token used: %w", err)
			}
			if !marked {
				return nil, false, nil
			}
			userID := issued.UserID
			return &userID, true, nil
		}

		claims, err := s.signer.Verify(req.Token)
		if err == nil && claims.Purpose == token.PurposeMeeting && claims.SessionID == session.ID {
			userID := claims.UserID
			return &userID, true, nil
		}
	}

	if req.BearerUserID != nil && session.IsParticipant(*req.BearerUserID) {
		userID := *req.BearerUserID
		return &userID, true, nil
	}

	return nil, false, nil
}

// ListJoinLogs журнал входов для админа, новые сверху
func (s *MeetingService) ListJoinLogs(ctx context.Context, userID int64, limit int) ([]*model.JoinLog, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsAdmin {
		return nil, ErrAdminOnly
	}

	if limit <= 0 || limit > joinLogLimit {
		limit = joinLogLimit
	}
	return s.joinLogRepo.ListRecent(ctx, limit)
}

// tokenFragment оставляет только короткий префикс хеша, по логу токен не восстановить
func tokenFragment(tok string) string {
	if tok == "" {
		return "auth"
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])[:8]
}
