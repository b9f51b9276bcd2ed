package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/knotless/knot-backend/internal/domain"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, match *domain.Match) error {
	// Ensure user1_id < user2_id for the unique pair constraint
	match.User1ID, match.User2ID = domain.NormalizePair(match.User1ID, match.User2ID)

	query := `
		INSERT INTO matches (id, user1_id, user2_id, initiator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, match.ID, match.User1ID, match.User2ID, match.InitiatorID).
		Scan(&match.CreatedAt)
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT id, user1_id, user2_id, initiator_id, created_at FROM matches WHERE id = $1`
	err := r.db.GetContext(ctx, &match, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

// GetForUser returns the live match the user is part of, if any.
func (r *MatchRepository) GetForUser(ctx context.Context, userID int) (*domain.Match, error) {
	var match domain.Match
	query := `
		SELECT id, user1_id, user2_id, initiator_id, created_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
	`
	err := r.db.GetContext(ctx, &match, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

// DeleteByUsers atomically removes and returns the match between a pair.
// Returns ErrMatchNotFound when no live match exists; callers decide the
// lifecycle transition from the returned prior state.
func (r *MatchRepository) DeleteByUsers(ctx context.Context, userA, userB int) (*domain.Match, error) {
	user1, user2 := domain.NormalizePair(userA, userB)
	query := `
		DELETE FROM matches
		WHERE user1_id = $1 AND user2_id = $2
		RETURNING id, user1_id, user2_id, initiator_id, created_at
	`
	return r.deleteReturning(ctx, query, user1, user2)
}

// DeleteByID is the watcher-side find-and-delete keyed by the scheduler's
// shared id.
func (r *MatchRepository) DeleteByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `
		DELETE FROM matches
		WHERE id = $1
		RETURNING id, user1_id, user2_id, initiator_id, created_at
	`
	return r.deleteReturning(ctx, query, id)
}

func (r *MatchRepository) deleteReturning(ctx context.Context, query string, args ...interface{}) (*domain.Match, error) {
	var match domain.Match
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&match.ID, &match.User1ID, &match.User2ID, &match.InitiatorID, &match.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}
