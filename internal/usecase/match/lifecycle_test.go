package match

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/domain"
)

type fakeMatchStore struct {
	matches map[string]*domain.Match
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]*domain.Match)}
}

func (s *fakeMatchStore) Create(ctx context.Context, match *domain.Match) error {
	match.User1ID, match.User2ID = domain.NormalizePair(match.User1ID, match.User2ID)
	copied := *match
	s.matches[match.ID] = &copied
	return nil
}

func (s *fakeMatchStore) GetForUser(ctx context.Context, userID int) (*domain.Match, error) {
	for _, m := range s.matches {
		if m.HasUser(userID) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (s *fakeMatchStore) DeleteByUsers(ctx context.Context, userA, userB int) (*domain.Match, error) {
	user1, user2 := domain.NormalizePair(userA, userB)
	for id, m := range s.matches {
		if m.User1ID == user1 && m.User2ID == user2 {
			delete(s.matches, id)
			return m, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (s *fakeMatchStore) DeleteByID(ctx context.Context, id string) (*domain.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	delete(s.matches, id)
	return m, nil
}

type fakeUserStore struct {
	users     map[int]*domain.User
	rejected  map[[2]int]bool
	rejectLog int
}

func newFakeUserStore(ids ...int) *fakeUserStore {
	s := &fakeUserStore{
		users:    make(map[int]*domain.User),
		rejected: make(map[[2]int]bool),
	}
	for _, id := range ids {
		s.users[id] = &domain.User{
			ID:       id,
			Fullname: "Test User",
			Username: "user",
			DOB:      "01-01-2000",
			Gender:   domain.GenderMale,
		}
	}
	return s
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) SetPendingMatch(ctx context.Context, userID int, pending bool) error {
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.HasPendingMatch = pending
	return nil
}

func (s *fakeUserStore) SetMatchFlags(ctx context.Context, userID int, hasPending, inConversation bool) error {
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.HasPendingMatch = hasPending
	u.InConversation = inConversation
	return nil
}

func (s *fakeUserStore) AddRejection(ctx context.Context, userID, rejectedID int) error {
	key := [2]int{userID, rejectedID}
	if !s.rejected[key] {
		s.rejected[key] = true
		s.rejectLog++
	}
	return nil
}

func (s *fakeUserStore) HasRejected(ctx context.Context, userID, targetID int) (bool, error) {
	return s.rejected[[2]int{userID, targetID}], nil
}

type fakeConvStore struct {
	conversations []*domain.Conversation
}

func (s *fakeConvStore) Create(ctx context.Context, conv *domain.Conversation) error {
	copied := *conv
	s.conversations = append(s.conversations, &copied)
	return nil
}

type fakeScheduler struct {
	armed map[string]bool
	arms  int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{armed: make(map[string]bool)}
}

func (s *fakeScheduler) Arm(ctx context.Context, matchID string) error {
	s.armed[matchID] = true
	s.arms++
	return nil
}

func (s *fakeScheduler) Disarm(ctx context.Context, matchID string) error {
	delete(s.armed, matchID)
	return nil
}

type fixture struct {
	matches    *fakeMatchStore
	users      *fakeUserStore
	convs      *fakeConvStore
	scheduler  *fakeScheduler
	controller *Controller
}

func newFixture(userIDs ...int) *fixture {
	matches := newFakeMatchStore()
	users := newFakeUserStore(userIDs...)
	convs := &fakeConvStore{}
	scheduler := newFakeScheduler()
	return &fixture{
		matches:    matches,
		users:      users,
		convs:      convs,
		scheduler:  scheduler,
		controller: NewController(matches, users, convs, scheduler, zap.NewNop()),
	}
}

func TestAcceptCreatesPendingProposal(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	result, err := fx.controller.Accept(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Mutual {
		t.Fatal("first accept must not be mutual")
	}
	if result.Match == nil || result.Match.InitiatorID != 1 {
		t.Fatalf("expected match initiated by user 1, got %+v", result.Match)
	}
	if !fx.users.users[1].HasPendingMatch || !fx.users.users[2].HasPendingMatch {
		t.Fatal("both users must be flagged with a pending match")
	}
	if !fx.scheduler.armed[result.Match.ID] {
		t.Fatal("scheduler entry must be armed for the new match")
	}
}

func TestAcceptSelfFails(t *testing.T) {
	fx := newFixture(1)

	_, err := fx.controller.Accept(context.Background(), 1, 1)
	if !errors.Is(err, domain.ErrCannotMatchSelf) {
		t.Fatalf("expected ErrCannotMatchSelf, got %v", err)
	}
}

func TestAcceptRejectedTargetFails(t *testing.T) {
	fx := newFixture(1, 2)
	fx.users.rejected[[2]int{1, 2}] = true

	_, err := fx.controller.Accept(context.Background(), 1, 2)
	if !errors.Is(err, domain.ErrAlreadyRejected) {
		t.Fatalf("expected ErrAlreadyRejected, got %v", err)
	}
}

func TestAcceptIsIdempotentForInitiator(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	first, err := fx.controller.Accept(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err = fx.controller.Accept(ctx, 1, 2)
		if !errors.Is(err, domain.ErrAlreadyAccepted) {
			t.Fatalf("duplicate accept %d: expected ErrAlreadyAccepted, got %v", i+1, err)
		}
	}

	restored, ok := fx.matches.matches[first.Match.ID]
	if !ok {
		t.Fatal("ledger must be restored after a duplicate accept")
	}
	if restored.InitiatorID != 1 {
		t.Fatalf("restored ledger has wrong initiator %d", restored.InitiatorID)
	}
	if len(fx.convs.conversations) != 0 {
		t.Fatal("duplicate accept must not create a conversation")
	}
	if fx.scheduler.arms != 1 {
		t.Fatalf("scheduler must be armed exactly once, got %d", fx.scheduler.arms)
	}
}

func TestMutualAccept(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	first, err := fx.controller.Accept(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := fx.controller.Accept(ctx, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error on counterpart accept: %v", err)
	}
	if !second.Mutual {
		t.Fatal("counterpart accept must resolve mutually")
	}
	if second.Conversation == nil {
		t.Fatal("mutual accept must return the conversation")
	}
	if len(fx.convs.conversations) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(fx.convs.conversations))
	}
	if len(fx.matches.matches) != 0 {
		t.Fatal("no ledger may remain after mutual acceptance")
	}
	if fx.scheduler.armed[first.Match.ID] {
		t.Fatal("scheduler entry must be disarmed on mutual acceptance")
	}
	for _, id := range []int{1, 2} {
		u := fx.users.users[id]
		if u.HasPendingMatch || !u.InConversation {
			t.Fatalf("user %d flags = pending %v, in_conversation %v", id, u.HasPendingMatch, u.InConversation)
		}
	}
}

func TestRejectResolvesPendingProposal(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	accepted, err := fx.controller.Accept(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fx.controller.Reject(ctx, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Resolved == nil || result.Resolved.ID != accepted.Match.ID {
		t.Fatalf("reject must resolve the live ledger, got %+v", result.Resolved)
	}
	if len(fx.matches.matches) != 0 {
		t.Fatal("ledger must be gone after reject")
	}
	if fx.scheduler.armed[accepted.Match.ID] {
		t.Fatal("scheduler entry must be disarmed on reject")
	}
	for _, key := range [][2]int{{1, 2}, {2, 1}} {
		if !fx.users.rejected[key] {
			t.Fatalf("rejection %v must be recorded", key)
		}
	}
	for _, id := range []int{1, 2} {
		if fx.users.users[id].HasPendingMatch {
			t.Fatalf("user %d still flagged with a pending match", id)
		}
	}
}

func TestRejectWithoutLiveMatchIsSafe(t *testing.T) {
	fx := newFixture(1, 2)

	result, err := fx.controller.Reject(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Resolved != nil {
		t.Fatal("nothing to resolve without a live ledger")
	}
	if !fx.users.rejected[[2]int{1, 2}] || !fx.users.rejected[[2]int{2, 1}] {
		t.Fatal("rejection must still be recorded in both directions")
	}
}

func TestRepeatedRejectIsInformationalNoOp(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	if _, err := fx.controller.Reject(ctx, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logged := fx.users.rejectLog

	result, err := fx.controller.Reject(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AlreadyRejected {
		t.Fatal("second reject must report already rejected")
	}
	if fx.users.rejectLog != logged {
		t.Fatal("second reject must not write new rejection entries")
	}
}

func TestPending(t *testing.T) {
	fx := newFixture(1, 2)
	ctx := context.Background()

	if _, err := fx.controller.Pending(ctx, 1); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}

	if _, err := fx.controller.Accept(ctx, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mine, err := fx.controller.Pending(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mine.SentByYou {
		t.Fatal("initiator must see sent_by_you = true")
	}

	theirs, err := fx.controller.Pending(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if theirs.SentByYou {
		t.Fatal("counterpart must see sent_by_you = false")
	}
}
