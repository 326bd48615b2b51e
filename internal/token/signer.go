// Package token подписывает и проверяет HMAC JWT для доступа к API,
// комнат занятий и одноразовых ссылок входа.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken - токен битый, истёк или подписан другим ключом.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret - NewSigner вызван без секрета.
	ErrEmptySecret = errors.New("token secret is empty")
)

// Purpose разделяет токены разных сценариев.
type Purpose string

const (
	PurposeAccess  Purpose = "access"  // bearer-токен для REST API
	PurposeMeeting Purpose = "meeting" // долгоживущий токен, выпускается при старте сессии
	PurposeJoin    Purpose = "join"    // короткоживущая одноразовая ссылка входа
)

// Claims общие claims для всех назначений.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64   `json:"uid"`
	SessionID int64   `json:"sid,omitempty"`
	Purpose   Purpose `json:"purpose"`
}

// Signer выпускает и проверяет HS256-токены.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock подменяет часы для iat/exp и для проверки.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign выпускает токен на ttl и возвращает его вместе со сроком действия.
func (s *Signer) Sign(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl).Truncate(jwt.TimePrecision)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprint(claims.UserID),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись, issuer и срок по текущим часам.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
