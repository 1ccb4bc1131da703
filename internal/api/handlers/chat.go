package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"flow-chat-service/internal/adapters/blob"
	"flow-chat-service/internal/models"
	"flow-chat-service/internal/services"
	"flow-chat-service/internal/websocket"
	apperrors "flow-chat-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Attachment constraints, enforced before the blob store is called.
const (
	maxAttachmentSize = 5 << 20 // 5 MiB
	defaultLimit      = 50
)

type ChatHandler struct {
	chatService   *services.ChatService
	friendService *services.FriendService
	userService   *services.UserService
	blobStore     blob.Store
	hub           *websocket.Hub
}

func NewChatHandler(
	chatService *services.ChatService,
	friendService *services.FriendService,
	userService *services.UserService,
	blobStore blob.Store,
	hub *websocket.Hub,
) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		friendService: friendService,
		userService:   userService,
		blobStore:     blobStore,
		hub:           hub,
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// StartConversation godoc
// @Summary Resolve the conversation with a friend
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendUserId query string true "Friend user ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/start [post]
func (h *ChatHandler) StartConversation(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	friendUserID := c.Query("friendUserId")
	if friendUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "friendUserId is required"})
		return
	}

	conversationID, err := h.friendService.ConversationIDBetween(c.Request.Context(), me.ID, friendUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": conversationID})
}

// ConversationWith godoc
// @Summary Look up the conversation id with a friend
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendUserId path string true "Friend user ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/with/{friendUserId} [get]
func (h *ChatHandler) ConversationWith(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	conversationID, err := h.friendService.ConversationIDBetween(c.Request.Context(), me.ID, c.Param("friendUserId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": conversationID})
}

// GetParticipant godoc
// @Summary Get the other participant of a conversation
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendshipId path string true "Conversation ID"
// @Success 200 {object} models.UserResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/{friendshipId}/participant [get]
func (h *ChatHandler) GetParticipant(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	f, err := h.chatService.Conversation(c.Request.Context(), c.Param("friendshipId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if f.UserAID != me.ID && f.UserBID != me.ID {
		respondError(c, apperrors.Forbidden("Not a participant of this conversation"))
		return
	}

	other := services.OtherParticipant(f, me.ID)
	c.JSON(http.StatusOK, models.NewUserResponse(other))
}

// GetMessages godoc
// @Summary Get recent messages of a conversation
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendshipId path string true "Conversation ID"
// @Param limit query int false "Page size" default(50)
// @Success 200 {array} models.ChatMessageResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/{friendshipId}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	limit := intQuery(c, "limit", defaultLimit)
	msgs, err := h.chatService.RecentMessages(c.Request.Context(), c.Param("friendshipId"), me.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SearchMessages godoc
// @Summary Search messages by substring
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendshipId path string true "Conversation ID"
// @Param q query string true "Search query"
// @Param limit query int false "Max matches" default(50)
// @Success 200 {array} models.ChatMessageResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/{friendshipId}/search [get]
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	limit := intQuery(c, "limit", defaultLimit)
	msgs, err := h.chatService.SearchMessages(c.Request.Context(), c.Param("friendshipId"), me.ID, c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SearchWithContext godoc
// @Summary Search messages with surrounding transcript context
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendshipId path string true "Conversation ID"
// @Param q query string true "Search query"
// @Param limit query int false "Max matches" default(20)
// @Param before query int false "Context messages before each match" default(2)
// @Param after query int false "Context messages after each match" default(2)
// @Param fetch query int false "Window of recent messages to search within" default(200)
// @Success 200 {object} models.ContextSearchResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chats/{friendshipId}/search-context [get]
func (h *ChatHandler) SearchWithContext(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	result, err := h.chatService.SearchWithContext(
		c.Request.Context(),
		c.Param("friendshipId"),
		me.ID,
		c.Query("q"),
		intQuery(c, "limit", 20),
		intQuery(c, "before", 2),
		intQuery(c, "after", 2),
		intQuery(c, "fetch", 200),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadAndSend godoc
// @Summary Upload an attachment and send it as a message
// @Tags chats
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param friendshipId path string true "Conversation ID"
// @Param file formData file true "Image attachment"
// @Param content formData string false "Optional text"
// @Success 200 {object} models.ChatMessageResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /chats/{friendshipId}/upload [post]
func (h *ChatHandler) UploadAndSend(c *gin.Context) {
	me, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	// Reject before the upload call: the size and type gates must not
	// depend on the blob store.
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size must be less than 5MB"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return
	}

	url, err := h.blobStore.Upload(c.Request.Context(), file, me.ID)
	if err != nil {
		respondError(c, apperrors.BadGateway("Failed to upload attachment"))
		return
	}

	dto, err := h.chatService.SaveMessageWithAttachment(
		c.Request.Context(),
		c.Param("friendshipId"),
		me.ID,
		c.PostForm("content"),
		url,
		contentType,
		file.Filename,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	// Best-effort: the message is committed, a broadcast failure stays
	// inside the hub.
	h.hub.PublishMessage(dto.ConversationID, dto)

	c.JSON(http.StatusOK, dto)
}
