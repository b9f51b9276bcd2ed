package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/knotless/knot-backend/internal/domain"
)

type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	conv.User1ID, conv.User2ID = domain.NormalizePair(conv.User1ID, conv.User2ID)

	query := `
		INSERT INTO conversations (id, user1_id, user2_id, loyalty_score)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, conv.ID, conv.User1ID, conv.User2ID, conv.LoyaltyScore).
		Scan(&conv.CreatedAt)
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.getOne(ctx, `
		SELECT id, user1_id, user2_id, loyalty_score, created_at
		FROM conversations WHERE id = $1
	`, id)
}

func (r *ConversationRepository) GetByUsers(ctx context.Context, userA, userB int) (*domain.Conversation, error) {
	user1, user2 := domain.NormalizePair(userA, userB)
	return r.getOne(ctx, `
		SELECT id, user1_id, user2_id, loyalty_score, created_at
		FROM conversations WHERE user1_id = $1 AND user2_id = $2
	`, user1, user2)
}

func (r *ConversationRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&conv.ID, &conv.User1ID, &conv.User2ID, &conv.LoyaltyScore, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	if err := r.loadMessages(ctx, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) loadMessages(ctx context.Context, conv *domain.Conversation) error {
	query := `
		SELECT id, conversation_id, sender_id, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id
	`
	return r.db.SelectContext(ctx, &conv.Messages, query, conv.ID)
}

// AppendMessage adds a message to the conversation's append-only log.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, msg.ConversationID, msg.SenderID, msg.Body).
		Scan(&msg.ID, &msg.CreatedAt)
}
