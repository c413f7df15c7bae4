// Package session is the identity stub: login produces an opaque token bound
// to a stable user id. There are no passwords and no claims; who the user
// actually is stays out of scope.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidToken is returned when a token is unknown or expired.
var ErrInvalidToken = errors.New("invalid session token")

// DefaultTTL bounds how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

// Session is an issued login.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Manager issues and resolves opaque session tokens backed by Redis.
type Manager struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{rdb: rdb, ttl: ttl}
}

func tokenKey(token string) string { return "session:" + token }
func userKey(email string) string  { return "user:email:" + strings.ToLower(email) }

// Login issues a token for the given email, creating a stable user id on
// first sight of the address.
func (m *Manager) Login(ctx context.Context, email string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	userID := uuid.NewString()
	ok, err := m.rdb.SetNX(ctx, userKey(email), userID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}
	if !ok {
		userID, err = m.rdb.Get(ctx, userKey(email)).Result()
		if err != nil {
			return nil, fmt.Errorf("resolving user: %w", err)
		}
	}

	token := uuid.NewString()
	if err := m.rdb.Set(ctx, tokenKey(token), userID, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return &Session{Token: token, UserID: userID}, nil
}

// Resolve maps a token back to its user id.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	userID, err := m.rdb.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return userID, nil
}

// Logout invalidates a token and returns the user id it belonged to, so the
// caller can discard session-owned state such as the profile.
func (m *Manager) Logout(ctx context.Context, token string) (string, error) {
	userID, err := m.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if err := m.rdb.Del(ctx, tokenKey(token)).Err(); err != nil {
		return "", fmt.Errorf("deleting session: %w", err)
	}
	return userID, nil
}
