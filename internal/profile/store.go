package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a user has not completed profile setup yet.
var ErrNotFound = errors.New("profile not found")

// Store keeps one JSON-encoded profile per user in Redis.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func profileKey(userID string) string {
	return "profile:" + userID
}

// Save replaces the user's profile wholesale.
func (s *Store) Save(ctx context.Context, userID string, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := s.rdb.Set(ctx, profileKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("storing profile: %w", err)
	}
	return nil
}

// Get returns the user's profile or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	data, err := s.rdb.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Delete discards the user's profile, e.g. on logout.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
