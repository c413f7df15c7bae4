package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

const snapshotKey = "catalog:snapshot"

// Cache holds a JSON snapshot of the full catalog in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached snapshot, or (nil, false) on a miss. Decode failures
// count as misses; the next refresh overwrites the bad entry.
func (c *Cache) Get(ctx context.Context) (*opportunity.List, bool) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var list opportunity.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	return &list, true
}

// Set stores the snapshot.
func (c *Cache) Set(ctx context.Context, l *opportunity.List) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding catalog snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing catalog snapshot: %w", err)
	}
	return nil
}

// Service is the catalog read path handed to the rest of the application:
// cache first, store on miss, cache refilled after a store read.
type Service struct {
	store  *Store
	cache  *Cache
	logger *zap.Logger
}

func NewService(store *Store, cache *Cache, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// List returns the current catalog snapshot in insertion order.
func (s *Service) List(ctx context.Context) (*opportunity.List, error) {
	if s.cache != nil {
		if list, ok := s.cache.Get(ctx); ok {
			return list, nil
		}
	}

	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, list); err != nil && s.logger != nil {
			s.logger.Warn("refilling catalog cache failed", zap.Error(err))
		}
	}
	return list, nil
}

// Publish writes through to the store and invalidates the cached snapshot by
// refreshing it.
func (s *Service) Publish(ctx context.Context, o *opportunity.Opportunity) error {
	if err := s.store.Publish(ctx, o); err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if s.logger != nil {
			s.logger.Warn("refreshing catalog cache after publish failed", zap.Error(err))
		}
	}
	return nil
}

// Refresh reloads the snapshot from the store into the cache.
func (s *Service) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, list)
}
