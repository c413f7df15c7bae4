// Package activity records which opportunities a user viewed, applied to or
// saved. The recommendation engine never reads any of this; only opportunity
// ids are stored, so correlation happens in the presentation layer.
package activity

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Tracker stores per-user activity as Redis sets.
type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

func key(userID, kind string) string {
	return fmt.Sprintf("activity:%s:%s", userID, kind)
}

// RecordView marks an opportunity as viewed. Repeated views are idempotent.
func (t *Tracker) RecordView(ctx context.Context, userID, opportunityID string) error {
	return t.rdb.SAdd(ctx, key(userID, "viewed"), opportunityID).Err()
}

// RecordApply marks an opportunity as applied to. Idempotent.
func (t *Tracker) RecordApply(ctx context.Context, userID, opportunityID string) error {
	return t.rdb.SAdd(ctx, key(userID, "applied"), opportunityID).Err()
}

// ToggleSave adds the opportunity to the saved set, or removes it when
// already present. It reports whether the opportunity is saved afterwards.
func (t *Tracker) ToggleSave(ctx context.Context, userID, opportunityID string) (bool, error) {
	k := key(userID, "saved")
	saved, err := t.rdb.SIsMember(ctx, k, opportunityID).Result()
	if err != nil {
		return false, err
	}
	if saved {
		return false, t.rdb.SRem(ctx, k, opportunityID).Err()
	}
	return true, t.rdb.SAdd(ctx, k, opportunityID).Err()
}

// Snapshot holds a user's activity as three id sets.
type Snapshot struct {
	Viewed  []string `json:"viewed"`
	Applied []string `json:"applied"`
	Saved   []string `json:"saved"`
}

// Snapshot returns the user's activity. Ids are sorted so the output is
// deterministic regardless of Redis set iteration order.
func (t *Tracker) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	snap := &Snapshot{}
	for _, entry := range []struct {
		kind string
		dst  *[]string
	}{
		{"viewed", &snap.Viewed},
		{"applied", &snap.Applied},
		{"saved", &snap.Saved},
	} {
		ids, err := t.rdb.SMembers(ctx, key(userID, entry.kind)).Result()
		if err != nil {
			return nil, fmt.Errorf("loading %s activity: %w", entry.kind, err)
		}
		sort.Strings(ids)
		*entry.dst = ids
	}
	return snap, nil
}

// Clear drops all activity for the user.
func (t *Tracker) Clear(ctx context.Context, userID string) error {
	return t.rdb.Del(ctx,
		key(userID, "viewed"),
		key(userID, "applied"),
		key(userID, "saved"),
	).Err()
}
