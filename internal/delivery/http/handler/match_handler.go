package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/knotless/knot-backend/internal/delivery/http/middleware"
	"github.com/knotless/knot-backend/internal/usecase/finder"
	"github.com/knotless/knot-backend/internal/usecase/match"
)

type MatchHandler struct {
	finder     *finder.Finder
	controller *match.Controller
}

func NewMatchHandler(f *finder.Finder, controller *match.Controller) *MatchHandler {
	return &MatchHandler{
		finder:     f,
		controller: controller,
	}
}

// Find handles GET /match/find
func (h *MatchHandler) Find(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	candidates, err := h.finder.Find(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, candidates)
}

// Accept handles PUT /match/accept/:user_id
func (h *MatchHandler) Accept(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	result, err := h.controller.Accept(c.Request.Context(), user.ID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Reject handles PUT /match/reject/:user_id
func (h *MatchHandler) Reject(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	result, err := h.controller.Reject(c.Request.Context(), user.ID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.AlreadyRejected {
		c.JSON(http.StatusOK, gin.H{"msg": "you have already rejected this user"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Pending handles GET /match/
func (h *MatchHandler) Pending(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	result, err := h.controller.Pending(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
