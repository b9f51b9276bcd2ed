package domain

import "time"

// Match is the ledger of one outstanding proposal between exactly two
// users. At most one live match exists per pair, enforced by the ordered
// pair unique constraint. The id doubles as the scheduler key suffix: a
// pending match always has a scheduler entry armed under the same id.
type Match struct {
	ID          string    `json:"id" db:"id"`
	User1ID     int       `json:"user1_id" db:"user1_id"`
	User2ID     int       `json:"user2_id" db:"user2_id"`
	InitiatorID int       `json:"initiator_id" db:"initiator_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NormalizePair orders a user pair for the user1_id < user2_id storage
// convention.
func NormalizePair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func (m *Match) HasUser(userID int) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) OtherUserID(userID int) (int, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return 0, false
}
