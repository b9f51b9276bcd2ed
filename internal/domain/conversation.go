package domain

import "time"

type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       int       `json:"sender_id" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Conversation struct {
	ID           string    `json:"id" db:"id"`
	User1ID      int       `json:"user1_id" db:"user1_id"`
	User2ID      int       `json:"user2_id" db:"user2_id"`
	LoyaltyScore int       `json:"loyalty_score" db:"loyalty_score"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	Messages     []Message `json:"messages"`
}

func (c *Conversation) HasUser(userID int) bool {
	return c.User1ID == userID || c.User2ID == userID
}
