package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knotless/knot-backend/internal/delivery/http/middleware"
	"github.com/knotless/knot-backend/internal/usecase/profile"
)

type UserHandler struct {
	profileUseCase *profile.UseCase
}

func NewUserHandler(profileUseCase *profile.UseCase) *UserHandler {
	return &UserHandler{profileUseCase: profileUseCase}
}

// Get handles GET /user
func (h *UserHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update handles PUT /user
func (h *UserHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req profile.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	updated, err := h.profileUseCase.Update(c.Request.Context(), user.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /user
func (h *UserHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.profileUseCase.Delete(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
