package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/knotless/knot-backend/internal/delivery/http/middleware"
	"github.com/knotless/knot-backend/internal/usecase/conversation"
)

type ConversationHandler struct {
	convUseCase *conversation.UseCase
}

func NewConversationHandler(convUseCase *conversation.UseCase) *ConversationHandler {
	return &ConversationHandler{convUseCase: convUseCase}
}

// Get handles GET /conversation/with/:user_id
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	view, err := h.convUseCase.Get(c.Request.Context(), user.ID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SendMessageRequest is the message payload
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage handles POST /conversation/send/:conversation_id
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.convUseCase.SendMessage(c.Request.Context(), user.ID, c.Param("conversation_id"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
