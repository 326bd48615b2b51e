package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, now *time.Time) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", "tutor-sessions")
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return *now })
}

func TestSigner_SignAndVerify(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, &now)

	tok, exp, err := s.Sign(Claims{UserID: 7, SessionID: 42, Purpose: PurposeJoin}, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, now.Add(15*time.Minute), exp)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, int64(42), claims.SessionID)
	require.Equal(t, PurposeJoin, claims.Purpose)
	require.Equal(t, "7", claims.Subject)
	require.NotEmpty(t, claims.ID)
}

func TestSigner_UniqueTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, &now)

	a, _, err := s.Sign(Claims{UserID: 1, SessionID: 1, Purpose: PurposeJoin}, time.Minute)
	require.NoError(t, err)
	b, _, err := s.Sign(Claims{UserID: 1, SessionID: 1, Purpose: PurposeJoin}, time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSigner_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, &now)

	tok, _, err := s.Sign(Claims{UserID: 1, Purpose: PurposeAccess}, time.Hour)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_WrongSecret(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, &now)

	other, err := NewSigner("other-secret", "tutor-sessions")
	require.NoError(t, err)
	other.WithClock(func() time.Time { return now })

	tok, _, err := other.Sign(Claims{UserID: 1, Purpose: PurposeAccess}, time.Hour)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_Garbage(t *testing.T) {
	now := time.Now()
	s := newTestSigner(t, &now)

	_, err := s.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSigner_EmptySecret(t *testing.T) {
	_, err := NewSigner("", "x")
	require.ErrorIs(t, err, ErrEmptySecret)
}
