package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knotless/knot-backend/internal/domain"
)

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain sentinels to HTTP statuses. Anything
// unrecognized is a generic server failure; internals are never leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyPending),
		errors.Is(err, domain.ErrAlreadyMatched),
		errors.Is(err, domain.ErrAlreadyRejected),
		errors.Is(err, domain.ErrAlreadyAccepted),
		errors.Is(err, domain.ErrCannotMatchSelf),
		errors.Is(err, domain.ErrNotParticipant):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
