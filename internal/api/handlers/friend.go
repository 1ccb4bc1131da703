package handlers

import (
	"net/http"

	"flow-chat-service/internal/services"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	friendService *services.FriendService
	userService   *services.UserService
}

func NewFriendHandler(friendService *services.FriendService, userService *services.UserService) *FriendHandler {
	return &FriendHandler{friendService: friendService, userService: userService}
}

// ListIncoming godoc
// @Summary List incoming pending friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FriendRequestResponse
// @Router /friends/requests [get]
func (h *FriendHandler) ListIncoming(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	list, err := h.friendService.ListIncoming(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListOutgoing godoc
// @Summary List outgoing pending friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FriendRequestResponse
// @Router /friends/outgoing [get]
func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	list, err := h.friendService.ListOutgoing(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListFriends godoc
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserResponse
// @Router /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	friends, err := h.friendService.ListFriends(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, friends)
}

// SendRequest godoc
// @Summary Send a friend request by username
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param username query string true "Recipient username"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /friends/request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	recipient, err := h.userService.FindByUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.friendService.SendRequest(c.Request.Context(), me, recipient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// AcceptRequest godoc
// @Summary Accept a pending friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /friends/requests/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	if _, err := h.friendService.AcceptRequest(c.Request.Context(), c.Param("id"), me); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RejectRequest godoc
// @Summary Reject a pending friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /friends/requests/{id}/reject [post]
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	if err := h.friendService.RejectRequest(c.Request.Context(), c.Param("id"), me); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// RemoveFriend godoc
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friend user ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /friends/{id} [delete]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	if err := h.friendService.RemoveFriend(c.Request.Context(), me, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
