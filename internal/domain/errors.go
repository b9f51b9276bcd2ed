package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// Precondition violations on the match lifecycle, surfaced to callers
	// with an explanatory message.
	ErrAlreadyPending  = errors.New("user already has a pending match")
	ErrAlreadyMatched  = errors.New("user is already in a conversation")
	ErrAlreadyRejected = errors.New("user has already rejected this match")
	ErrAlreadyAccepted = errors.New("match already accepted by this user")
	ErrCannotMatchSelf = errors.New("cannot match with yourself")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotParticipant     = errors.New("user is not a participant of this conversation")
)
