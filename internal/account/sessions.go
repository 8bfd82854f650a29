package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionRecord struct {
	user      User
	expiresAt time.Time
}

// Sessions issues opaque bearer tokens for cookie auth. Only the sha256 of a
// token is kept server-side.
type Sessions struct {
	ttl time.Duration

	mu      sync.Mutex
	byToken map[string]sessionRecord
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:     ttl,
		byToken: make(map[string]sessionRecord),
	}
}

func (s *Sessions) Create(user User) (string, time.Time, error) {
	rawToken, err := randomToken(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl).UTC()

	s.mu.Lock()
	s.byToken[hashToken(rawToken)] = sessionRecord{user: user, expiresAt: expiresAt}
	s.mu.Unlock()

	return rawToken, expiresAt, nil
}

func (s *Sessions) Resolve(rawToken string) (User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return User{}, ErrSessionNotFound
	}

	key := hashToken(rawToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byToken[key]
	if !ok {
		return User{}, ErrSessionNotFound
	}
	if time.Now().After(record.expiresAt) {
		delete(s.byToken, key)
		return User{}, ErrSessionNotFound
	}
	return record.user, nil
}

func (s *Sessions) Delete(rawToken string) {
	if strings.TrimSpace(rawToken) == "" {
		return
	}
	s.mu.Lock()
	delete(s.byToken, hashToken(rawToken))
	s.mu.Unlock()
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
