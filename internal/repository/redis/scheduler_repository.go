package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// schedulerKeyPrefix namespaces scheduler entries. The suffix is the
// owning match's id, which is how expired-key events are correlated back
// to their ledger.
const schedulerKeyPrefix = "match:scheduler:"

// SchedulerKey builds the Redis key for a match's scheduler entry.
func SchedulerKey(matchID string) string {
	return schedulerKeyPrefix + matchID
}

// MatchIDFromKey extracts the match id from a scheduler key. Returns
// false for keys outside the scheduler namespace.
func MatchIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, schedulerKeyPrefix) {
		return "", false
	}
	return key[len(schedulerKeyPrefix):], true
}

// SchedulerRepository stores the TTL-bound scheduler entries. The store's
// own eviction is the expiry trigger; the application never runs timers.
type SchedulerRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSchedulerRepository(client *redis.Client, ttl time.Duration) *SchedulerRepository {
	return &SchedulerRepository{client: client, ttl: ttl}
}

// Arm creates the scheduler entry for a match with the configured TTL.
func (r *SchedulerRepository) Arm(ctx context.Context, matchID string) error {
	return r.client.Set(ctx, SchedulerKey(matchID), time.Now().Unix(), r.ttl).Err()
}

// Disarm removes the scheduler entry. Removing an absent entry is not an
// error: the entry may already be evicted or deleted by the other side.
func (r *SchedulerRepository) Disarm(ctx context.Context, matchID string) error {
	return r.client.Del(ctx, SchedulerKey(matchID)).Err()
}
