package handlers

import (
	"net/http"

	"flow-chat-service/internal/models"
	"flow-chat-service/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} map[string]string
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewUserResponse(me))
}

// Search godoc
// @Summary Search users by username prefix or substring
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username query string true "Username substring"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} models.UserResponse
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	if _, ok := currentUser(c, h.userService); !ok {
		return
	}

	q := c.Query("username")
	if q == "" {
		c.JSON(http.StatusOK, []models.UserResponse{})
		return
	}

	users, err := h.userService.SearchByUsername(c.Request.Context(), q, intQuery(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
