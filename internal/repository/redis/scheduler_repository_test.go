package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *SchedulerRepository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewSchedulerRepository(client, 120*time.Second)
}

func TestArmSetsEntryWithTTL(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Arm(ctx, "m-1"); err != nil {
		t.Fatalf("arm: %v", err)
	}

	key := SchedulerKey("m-1")
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to exist", key)
	}
	if ttl := mr.TTL(key); ttl != 120*time.Second {
		t.Fatalf("unexpected TTL: got %v want %v", ttl, 120*time.Second)
	}

	// Past the deadline the store evicts the entry on its own.
	mr.FastForward(121 * time.Second)
	if mr.Exists(key) {
		t.Fatal("entry must be evicted after the TTL elapses")
	}
}

func TestDisarmRemovesEntry(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Arm(ctx, "m-1"); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := repo.Disarm(ctx, "m-1"); err != nil {
		t.Fatalf("disarm: %v", err)
	}
	if mr.Exists(SchedulerKey("m-1")) {
		t.Fatal("entry must be gone after disarm")
	}
}

func TestDisarmToleratesAbsentEntry(t *testing.T) {
	_, repo := newTestRepo(t)

	if err := repo.Disarm(context.Background(), "never-armed"); err != nil {
		t.Fatalf("disarming an absent entry must not fail: %v", err)
	}
}

func TestMatchIDFromKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{key: SchedulerKey("abc-123"), wantID: "abc-123", wantOK: true},
		{key: "match:scheduler:", wantID: "", wantOK: true},
		{key: "session:abc", wantOK: false},
		{key: "", wantOK: false},
	}

	for _, tc := range tests {
		id, ok := MatchIDFromKey(tc.key)
		if ok != tc.wantOK || id != tc.wantID {
			t.Fatalf("MatchIDFromKey(%q) = (%q, %v), want (%q, %v)", tc.key, id, ok, tc.wantID, tc.wantOK)
		}
	}
}
