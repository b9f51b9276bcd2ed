package expiry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/domain"
	redisrepo "github.com/knotless/knot-backend/internal/repository/redis"
)

type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]*domain.Match
	deletes int
}

func newFakeMatchStore(matches ...*domain.Match) *fakeMatchStore {
	s := &fakeMatchStore{matches: make(map[string]*domain.Match)}
	for _, m := range matches {
		s.matches[m.ID] = m
	}
	return s
}

func (s *fakeMatchStore) DeleteByID(ctx context.Context, id string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	delete(s.matches, id)
	return m, nil
}

func (s *fakeMatchStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

type fakeUserStore struct {
	mu       sync.Mutex
	pending  map[int]bool
	rejected map[[2]int]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		pending:  make(map[int]bool),
		rejected: make(map[[2]int]bool),
	}
}

func (s *fakeUserStore) SetPendingMatch(ctx context.Context, userID int, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = pending
	return nil
}

func (s *fakeUserStore) AddRejection(ctx context.Context, userID, rejectedID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[[2]int{userID, rejectedID}] = true
	return nil
}

func (s *fakeUserStore) hasRejected(userID, rejectedID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected[[2]int{userID, rejectedID}]
}

func (s *fakeUserStore) hasPending(userID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[userID]
}

func TestHandleExpiredKeyCleansUpLapsedMatch(t *testing.T) {
	match := &domain.Match{ID: "m-1", User1ID: 1, User2ID: 2, InitiatorID: 1}
	matches := newFakeMatchStore(match)
	users := newFakeUserStore()
	users.pending[1] = true
	users.pending[2] = true

	w := NewWatcher(nil, 0, matches, users, zap.NewNop())
	w.HandleExpiredKey(context.Background(), redisrepo.SchedulerKey("m-1"))

	if !users.hasRejected(1, 2) || !users.hasRejected(2, 1) {
		t.Fatal("expiry must record the rejection in both directions")
	}
	if users.hasPending(1) || users.hasPending(2) {
		t.Fatal("expiry must clear the pending flag on both users")
	}
}

func TestHandleExpiredKeyIgnoresStaleEvent(t *testing.T) {
	// The ledger is already gone: the controller resolved the match
	// before the scheduler entry was evicted.
	matches := newFakeMatchStore()
	users := newFakeUserStore()

	w := NewWatcher(nil, 0, matches, users, zap.NewNop())
	w.HandleExpiredKey(context.Background(), redisrepo.SchedulerKey("gone"))

	if len(users.rejected) != 0 {
		t.Fatal("stale event must not record rejections")
	}
}

func TestHandleExpiredKeyIgnoresForeignKeys(t *testing.T) {
	matches := newFakeMatchStore()
	users := newFakeUserStore()

	w := NewWatcher(nil, 0, matches, users, zap.NewNop())
	w.HandleExpiredKey(context.Background(), "session:abc")

	if matches.deleteCount() != 0 {
		t.Fatal("keys outside the scheduler namespace must be ignored")
	}
}

func TestExpiryAfterRejectMatchesSingleReject(t *testing.T) {
	// Reject already resolved the ledger and wrote both rejections; the
	// late expiry event must change nothing.
	matches := newFakeMatchStore()
	users := newFakeUserStore()
	users.rejected[[2]int{1, 2}] = true
	users.rejected[[2]int{2, 1}] = true

	w := NewWatcher(nil, 0, matches, users, zap.NewNop())
	w.HandleExpiredKey(context.Background(), redisrepo.SchedulerKey("m-1"))

	if len(users.rejected) != 2 {
		t.Fatalf("expected 2 rejection entries, got %d", len(users.rejected))
	}
	if users.hasPending(1) || users.hasPending(2) {
		t.Fatal("no pending flags may be set")
	}
}

func TestWatcherConsumesExpiredEvents(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	match := &domain.Match{ID: "m-1", User1ID: 1, User2ID: 2, InitiatorID: 1}
	matches := newFakeMatchStore(match)
	users := newFakeUserStore()

	w := NewWatcher(client, 0, matches, users, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer w.Stop()

	// miniredis does not evict-and-notify on its own; deliver the
	// expired-key event the way the server would.
	if err := client.Publish(context.Background(), "__keyevent@0__:expired", redisrepo.SchedulerKey("m-1")).Err(); err != nil {
		t.Fatalf("publish expired event: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for !users.hasRejected(1, 2) || !users.hasRejected(2, 1) {
		select {
		case <-deadline:
			t.Fatal("watcher did not process the expired event in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcherStopIsIdempotentBeforeStart(t *testing.T) {
	w := NewWatcher(nil, 0, newFakeMatchStore(), newFakeUserStore(), zap.NewNop())
	w.Stop() // must not panic or block
}
