// Package auth issues and checks bridge access tokens. A caller trades the
// shared bridge secret for a short-lived HS256 token; only the bcrypt hash
// of the secret is configured on the server.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fraction12/wireflow/internal/typeid"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidSecret = errors.New("invalid secret")
	ErrInvalidToken  = errors.New("invalid token")
)

type Service struct {
	secretHash []byte
	jwtSecret  []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewService creates a token service. An empty secretHash disables
// authentication: every request is accepted as an anonymous session.
func NewService(secretHash, jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		secretHash: []byte(secretHash),
		jwtSecret:  []byte(jwtSecret),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Enabled reports whether requests must carry a token.
func (s *Service) Enabled() bool { return len(s.secretHash) > 0 }

type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Session   Session   `json:"session"`
}

// Session identifies one authenticated bridge client.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueToken checks secret against the configured hash and signs a token
// for a new session named name.
func (s *Service) IssueToken(secret, name string) (*TokenResult, error) {
	if !s.Enabled() {
		return nil, ErrInvalidSecret
	}
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
		return nil, ErrInvalidSecret
	}
	if name == "" {
		name = "Bridge client"
	}

	session := Session{ID: typeid.NewSessionID(), Name: name}
	now := s.now()
	expires := now.Add(s.ttl)
	token, err := s.issueToken(session, now, expires)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, ExpiresAt: expires, Session: session}, nil
}

func (s *Service) ValidateToken(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)

	return Session{ID: id, Name: name}, nil
}

func (s *Service) issueToken(session Session, now, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  session.ID,
		"name": session.Name,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// HashSecret returns the bcrypt hash to configure for secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), 12)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
