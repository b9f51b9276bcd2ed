package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/knotless/knot-backend/internal/domain"
)

type fakeConvStore struct {
	conversations map[string]*domain.Conversation
	nextMsgID     int64
}

func newFakeConvStore(convs ...*domain.Conversation) *fakeConvStore {
	s := &fakeConvStore{conversations: make(map[string]*domain.Conversation), nextMsgID: 1}
	for _, c := range convs {
		s.conversations[c.ID] = c
	}
	return s
}

func (s *fakeConvStore) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	c, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *fakeConvStore) GetByUsers(ctx context.Context, userA, userB int) (*domain.Conversation, error) {
	user1, user2 := domain.NormalizePair(userA, userB)
	for _, c := range s.conversations {
		if c.User1ID == user1 && c.User2ID == user2 {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (s *fakeConvStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	msg.ID = s.nextMsgID
	s.nextMsgID++
	c.Messages = append(c.Messages, *msg)
	return nil
}

type fakeUserStore struct{}

func (fakeUserStore) GetByID(ctx context.Context, id int) (*domain.User, error) {
	return &domain.User{ID: id, Fullname: "Test User", Username: "user", DOB: "01-01-2000", Gender: domain.GenderMale}, nil
}

func TestGetReturnsConversationWithParticipants(t *testing.T) {
	conv := &domain.Conversation{ID: "c-1", User1ID: 1, User2ID: 2}
	uc := NewUseCase(newFakeConvStore(conv), fakeUserStore{})

	view, err := uc.Get(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Conversation.ID != "c-1" {
		t.Fatalf("unexpected conversation %q", view.Conversation.ID)
	}
	if len(view.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(view.Participants))
	}
}

func TestSendMessageAppends(t *testing.T) {
	conv := &domain.Conversation{ID: "c-1", User1ID: 1, User2ID: 2}
	store := newFakeConvStore(conv)
	uc := NewUseCase(store, fakeUserStore{})

	view, err := uc.SendMessage(context.Background(), 1, "c-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Conversation.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(view.Conversation.Messages))
	}
	msg := view.Conversation.Messages[0]
	if msg.SenderID != 1 || msg.Body != "hello" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	conv := &domain.Conversation{ID: "c-1", User1ID: 1, User2ID: 2}
	uc := NewUseCase(newFakeConvStore(conv), fakeUserStore{})

	_, err := uc.SendMessage(context.Background(), 3, "c-1", "hi")
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}
