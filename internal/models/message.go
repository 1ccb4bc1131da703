package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */
// ChatMessage is one immutable message in a conversation. The attachment
// fields are set together or not at all; Content may be the empty string
// only for attachment-only messages.
type ChatMessage struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	FriendshipID string `gorm:"type:uuid;not null;index" json:"friendshipId"`
	SenderID     string `gorm:"type:uuid;not null" json:"senderId"`
	Content      string `gorm:"size:2000;not null" json:"content"`

	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
	AttachmentName string `json:"attachmentName,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// ChatMessageResponse is the wire payload delivered to REST and websocket
// clients alike.
type ChatMessageResponse struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversationId"`
	SenderID          string    `json:"senderId"`
	SenderDisplayName string    `json:"senderDisplayName"`
	SenderPictureURL  string    `json:"senderPictureUrl,omitempty"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"createdAt"`
	AttachmentURL     string    `json:"attachmentUrl,omitempty"`
	AttachmentType    string    `json:"attachmentType,omitempty"`
	AttachmentName    string    `json:"attachmentName,omitempty"`
}

// NewChatMessageResponse flattens a stored message and its sender into the
// wire payload. The sender must be preloaded or passed explicitly.
func NewChatMessageResponse(m *ChatMessage, sender *User) ChatMessageResponse {
	return ChatMessageResponse{
		ID:                m.ID,
		ConversationID:    m.FriendshipID,
		SenderID:          m.SenderID,
		SenderDisplayName: sender.Display(),
		SenderPictureURL:  sender.ProfilePictureURL,
		Content:           m.Content,
		CreatedAt:         m.CreatedAt,
		AttachmentURL:     m.AttachmentURL,
		AttachmentType:    m.AttachmentType,
		AttachmentName:    m.AttachmentName,
	}
}

// ContextSearchResponse is the result of a context-window search: the
// deduplicated chronological window, the total match count and every matched
// id, including matches too old to fall inside the fetched window.
type ContextSearchResponse struct {
	Messages     []ChatMessageResponse `json:"messages"`
	MatchesCount int                   `json:"matchesCount"`
	MatchedIDs   []string              `json:"matchedIds"`
}
