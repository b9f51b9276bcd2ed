package expiry

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/domain"
	redisrepo "github.com/knotless/knot-backend/internal/repository/redis"
)

type MatchStore interface {
	DeleteByID(ctx context.Context, id string) (*domain.Match, error)
}

type UserStore interface {
	SetPendingMatch(ctx context.Context, userID int, pending bool) error
	AddRejection(ctx context.Context, userID, rejectedID int) error
}

// Watcher consumes Redis expired-key events for scheduler entries and
// performs the compensating cleanup for proposals that lapsed unanswered.
// Cleanup is best effort: failures are logged and the event dropped, a
// stuck pending flag is recoverable by a later explicit accept or reject.
type Watcher struct {
	client     *goredis.Client
	redisDB    int
	matchStore MatchStore
	userStore  UserStore
	log        *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(client *goredis.Client, redisDB int, matchStore MatchStore, userStore UserStore, log *zap.Logger) *Watcher {
	return &Watcher{
		client:     client,
		redisDB:    redisDB,
		matchStore: matchStore,
		userStore:  userStore,
		log:        log,
	}
}

// Start subscribes to the expired-event channel and launches the event
// loop. It is meant to be called once at service init; Stop tears the
// subscription down.
func (w *Watcher) Start(ctx context.Context) error {
	// Keyspace notifications for expired keys have to be switched on
	// server-side. Managed Redis may refuse CONFIG SET; in that case the
	// operator sets notify-keyspace-events themselves.
	if err := w.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		w.log.Warn("could not enable keyspace notifications, assuming configured externally", zap.Error(err))
	}

	channel := fmt.Sprintf("__keyevent@%d__:expired", w.redisDB)
	sub := w.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx, sub)

	w.log.Info("expiry watcher started", zap.String("channel", channel))
	return nil
}

// Stop cancels the event loop and waits for it to drain.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.log.Info("expiry watcher stopped")
}

func (w *Watcher) run(ctx context.Context, sub *goredis.PubSub) {
	defer close(w.done)
	defer func() { _ = sub.Close() }()

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				w.log.Warn("expired-event subscription closed")
				return
			}
			w.HandleExpiredKey(ctx, msg.Payload)
		}
	}
}

// HandleExpiredKey processes one expired-key event. Keys outside the
// scheduler namespace are ignored; so are events whose ledger is already
// gone, which means the controller resolved the match first.
func (w *Watcher) HandleExpiredKey(ctx context.Context, key string) {
	matchID, ok := redisrepo.MatchIDFromKey(key)
	if !ok {
		return
	}

	match, err := w.matchStore.DeleteByID(ctx, matchID)
	if errors.Is(err, domain.ErrMatchNotFound) {
		w.log.Debug("stale expiry event, match already resolved", zap.String("match_id", matchID))
		return
	}
	if err != nil {
		w.log.Error("failed to delete expired match", zap.String("match_id", matchID), zap.Error(err))
		return
	}

	// A genuinely lapsed proposal counts as a rejection in both
	// directions, same as an explicit reject.
	pairs := [][2]int{
		{match.User1ID, match.User2ID},
		{match.User2ID, match.User1ID},
	}
	for _, pair := range pairs {
		if err := w.userStore.AddRejection(ctx, pair[0], pair[1]); err != nil {
			w.log.Error("failed to record rejection on expiry",
				zap.String("match_id", matchID), zap.Int("user_id", pair[0]), zap.Error(err))
		}
		if err := w.userStore.SetPendingMatch(ctx, pair[0], false); err != nil {
			w.log.Error("failed to clear pending flag on expiry",
				zap.String("match_id", matchID), zap.Int("user_id", pair[0]), zap.Error(err))
		}
	}

	w.log.Info("match expired unanswered",
		zap.String("match_id", matchID),
		zap.Int("user1_id", match.User1ID),
		zap.Int("user2_id", match.User2ID),
	)
}
