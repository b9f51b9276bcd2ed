package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/domain"
)

type MatchStore interface {
	Create(ctx context.Context, match *domain.Match) error
	GetForUser(ctx context.Context, userID int) (*domain.Match, error)
	DeleteByUsers(ctx context.Context, userA, userB int) (*domain.Match, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	SetPendingMatch(ctx context.Context, userID int, pending bool) error
	SetMatchFlags(ctx context.Context, userID int, hasPending, inConversation bool) error
	AddRejection(ctx context.Context, userID, rejectedID int) error
	HasRejected(ctx context.Context, userID, targetID int) (bool, error)
}

type ConversationStore interface {
	Create(ctx context.Context, conv *domain.Conversation) error
}

type Scheduler interface {
	Arm(ctx context.Context, matchID string) error
	Disarm(ctx context.Context, matchID string) error
}

// Controller is the single mutator of the match ledger, the scheduler
// entries and the users' match flags. The writes are not transactional
// across stores; every step tolerates the record already being resolved
// by the concurrent expiry watcher.
type Controller struct {
	matchStore MatchStore
	userStore  UserStore
	convStore  ConversationStore
	scheduler  Scheduler
	log        *zap.Logger
}

func NewController(
	matchStore MatchStore,
	userStore UserStore,
	convStore ConversationStore,
	scheduler Scheduler,
	log *zap.Logger,
) *Controller {
	return &Controller{
		matchStore: matchStore,
		userStore:  userStore,
		convStore:  convStore,
		scheduler:  scheduler,
		log:        log,
	}
}

// UserProjection is the slice of a user returned by lifecycle operations.
type UserProjection struct {
	ID             int    `json:"id"`
	Fullname       string `json:"fullname"`
	Username       string `json:"username"`
	DOB            string `json:"dob"`
	Gender         string `json:"gender"`
	InConversation bool   `json:"in_conversation"`
}

func projection(u *domain.User) UserProjection {
	return UserProjection{
		ID:             u.ID,
		Fullname:       u.Fullname,
		Username:       u.Username,
		DOB:            u.DOB,
		Gender:         u.Gender,
		InConversation: u.InConversation,
	}
}

// AcceptResult carries either a fresh pending match or, on mutual
// acceptance, the created conversation.
type AcceptResult struct {
	Mutual       bool                 `json:"mutual"`
	Match        *domain.Match        `json:"match,omitempty"`
	Conversation *domain.Conversation `json:"conversation,omitempty"`
	MatchedUser  UserProjection       `json:"matched_user"`
	LoggedInUser UserProjection       `json:"logged_in_user"`
}

// Accept drives the NONE -> PENDING and PENDING -> MUTUAL transitions.
// The decision is taken from the ledger's actual prior state via an
// atomic find-and-delete, never from caller-supplied expectations.
func (c *Controller) Accept(ctx context.Context, callerID, targetID int) (*AcceptResult, error) {
	if callerID == targetID {
		return nil, domain.ErrCannotMatchSelf
	}

	rejected, err := c.userStore.HasRejected(ctx, callerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rejection: %w", err)
	}
	if rejected {
		return nil, domain.ErrAlreadyRejected
	}

	existing, err := c.matchStore.DeleteByUsers(ctx, callerID, targetID)
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return c.propose(ctx, callerID, targetID)
	case err != nil:
		return nil, fmt.Errorf("failed to resolve existing match: %w", err)
	case existing.InitiatorID == callerID:
		// Duplicate accept by the proposer. The find-and-delete above was
		// destructive, so restore the identical ledger. The scheduler entry
		// is untouched and keeps its original deadline.
		if createErr := c.matchStore.Create(ctx, existing); createErr != nil {
			return nil, fmt.Errorf("failed to restore match %s: %w", existing.ID, createErr)
		}
		return nil, domain.ErrAlreadyAccepted
	default:
		return c.resolveMutual(ctx, existing, callerID, targetID)
	}
}

func (c *Controller) propose(ctx context.Context, callerID, targetID int) (*AcceptResult, error) {
	user1, user2 := domain.NormalizePair(callerID, targetID)
	match := &domain.Match{
		ID:          uuid.NewString(),
		User1ID:     user1,
		User2ID:     user2,
		InitiatorID: callerID,
	}
	if err := c.matchStore.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	for _, id := range []int{callerID, targetID} {
		if err := c.userStore.SetPendingMatch(ctx, id, true); err != nil {
			return nil, fmt.Errorf("failed to flag pending match for user %d: %w", id, err)
		}
	}

	if err := c.scheduler.Arm(ctx, match.ID); err != nil {
		return nil, fmt.Errorf("failed to arm scheduler for match %s: %w", match.ID, err)
	}

	c.log.Info("match proposed",
		zap.String("match_id", match.ID),
		zap.Int("initiator_id", callerID),
		zap.Int("target_id", targetID),
	)

	return c.buildResult(ctx, &AcceptResult{Match: match}, callerID, targetID)
}

func (c *Controller) resolveMutual(ctx context.Context, match *domain.Match, callerID, targetID int) (*AcceptResult, error) {
	// The scheduler entry may already be evicted; Disarm tolerates that.
	if err := c.scheduler.Disarm(ctx, match.ID); err != nil {
		return nil, fmt.Errorf("failed to disarm scheduler for match %s: %w", match.ID, err)
	}

	conv := &domain.Conversation{
		ID:      uuid.NewString(),
		User1ID: match.User1ID,
		User2ID: match.User2ID,
	}
	if err := c.convStore.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	for _, id := range []int{callerID, targetID} {
		if err := c.userStore.SetMatchFlags(ctx, id, false, true); err != nil {
			return nil, fmt.Errorf("failed to update match flags for user %d: %w", id, err)
		}
	}

	c.log.Info("match resolved mutually",
		zap.String("match_id", match.ID),
		zap.String("conversation_id", conv.ID),
		zap.Int("user1_id", match.User1ID),
		zap.Int("user2_id", match.User2ID),
	)

	return c.buildResult(ctx, &AcceptResult{Mutual: true, Conversation: conv}, callerID, targetID)
}

func (c *Controller) buildResult(ctx context.Context, result *AcceptResult, callerID, targetID int) (*AcceptResult, error) {
	caller, err := c.userStore.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller %d: %w", callerID, err)
	}
	target, err := c.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load target %d: %w", targetID, err)
	}
	result.LoggedInUser = projection(caller)
	result.MatchedUser = projection(target)
	return result, nil
}

// RejectResult reports what a reject resolved.
type RejectResult struct {
	AlreadyRejected bool           `json:"already_rejected"`
	Resolved        *domain.Match  `json:"resolved_match,omitempty"`
	MatchedUser     UserProjection `json:"matched_user"`
	LoggedInUser    UserProjection `json:"logged_in_user"`
}

// Reject drives PENDING -> REJECTED. It is safe against the pair having
// no live match: the ledger may already be resolved or expired, in which
// case only the rejection record and flags are (re)written.
func (c *Controller) Reject(ctx context.Context, callerID, targetID int) (*RejectResult, error) {
	if callerID == targetID {
		return nil, domain.ErrCannotMatchSelf
	}

	rejected, err := c.userStore.HasRejected(ctx, callerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rejection: %w", err)
	}
	if rejected {
		return &RejectResult{AlreadyRejected: true}, nil
	}

	existing, err := c.matchStore.DeleteByUsers(ctx, callerID, targetID)
	if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to delete match: %w", err)
	}
	if existing != nil {
		if err := c.scheduler.Disarm(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to disarm scheduler for match %s: %w", existing.ID, err)
		}
	}

	// Rejection is recorded in both directions, unconditionally.
	if err := c.userStore.AddRejection(ctx, callerID, targetID); err != nil {
		return nil, fmt.Errorf("failed to record rejection: %w", err)
	}
	if err := c.userStore.AddRejection(ctx, targetID, callerID); err != nil {
		return nil, fmt.Errorf("failed to record rejection: %w", err)
	}
	for _, id := range []int{callerID, targetID} {
		if err := c.userStore.SetPendingMatch(ctx, id, false); err != nil {
			return nil, fmt.Errorf("failed to clear pending match for user %d: %w", id, err)
		}
	}

	c.log.Info("match rejected",
		zap.Int("caller_id", callerID),
		zap.Int("target_id", targetID),
		zap.Bool("had_live_match", existing != nil),
	)

	caller, err := c.userStore.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller %d: %w", callerID, err)
	}
	target, err := c.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load target %d: %w", targetID, err)
	}

	return &RejectResult{
		Resolved:     existing,
		LoggedInUser: projection(caller),
		MatchedUser:  projection(target),
	}, nil
}

// PendingResult is the caller's current outstanding proposal.
type PendingResult struct {
	Match     *domain.Match `json:"match"`
	SentByYou bool          `json:"sent_by_you"`
}

// Pending returns the caller's live match, or ErrMatchNotFound.
func (c *Controller) Pending(ctx context.Context, callerID int) (*PendingResult, error) {
	match, err := c.matchStore.GetForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return &PendingResult{
		Match:     match,
		SentByYou: match.InitiatorID == callerID,
	}, nil
}
