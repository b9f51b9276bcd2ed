package conversation

import (
	"context"
	"fmt"

	"github.com/knotless/knot-backend/internal/domain"
)

type ConversationStore interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByUsers(ctx context.Context, userA, userB int) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, msg *domain.Message) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
}

type UseCase struct {
	convStore ConversationStore
	userStore UserStore
}

func NewUseCase(convStore ConversationStore, userStore UserStore) *UseCase {
	return &UseCase{
		convStore: convStore,
		userStore: userStore,
	}
}

// Participant mirrors the projection the match lifecycle returns.
type Participant struct {
	ID       int    `json:"id"`
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	DOB      string `json:"dob"`
	Gender   string `json:"gender"`
}

type ConversationView struct {
	Conversation *domain.Conversation `json:"conversation"`
	Participants []Participant        `json:"participants"`
}

// Get returns the conversation between the caller and another user.
func (uc *UseCase) Get(ctx context.Context, callerID, otherID int) (*ConversationView, error) {
	conv, err := uc.convStore.GetByUsers(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, conv)
}

// SendMessage appends a message to a conversation the caller belongs to.
func (uc *UseCase) SendMessage(ctx context.Context, callerID int, conversationID, body string) (*ConversationView, error) {
	conv, err := uc.convStore.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasUser(callerID) {
		return nil, domain.ErrNotParticipant
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       callerID,
		Body:           body,
	}
	if err := uc.convStore.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	conv.Messages = append(conv.Messages, *msg)

	return uc.view(ctx, conv)
}

func (uc *UseCase) view(ctx context.Context, conv *domain.Conversation) (*ConversationView, error) {
	participants := make([]Participant, 0, 2)
	for _, id := range []int{conv.User1ID, conv.User2ID} {
		user, err := uc.userStore.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load participant %d: %w", id, err)
		}
		participants = append(participants, Participant{
			ID:       user.ID,
			Fullname: user.Fullname,
			Username: user.Username,
			DOB:      user.DOB,
			Gender:   user.Gender,
		})
	}
	return &ConversationView{Conversation: conv, Participants: participants}, nil
}
