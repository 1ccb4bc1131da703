package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"flow-chat-service/internal/models"
	"flow-chat-service/internal/services"
	apperrors "flow-chat-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses. Anything outside
// the AppError taxonomy is an internal failure and is never echoed to the
// caller.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	slog.Error("Unexpected handler error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// currentUser loads the user resolved by the auth middleware. The resolved
// record is passed down as a value; nothing downstream re-derives identity.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return user, true
}
