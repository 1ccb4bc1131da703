package models

import (
	"time"
)

// Friend request lifecycle. PENDING is the only non-terminal state.
const (
	RequestPending  = "PENDING"
	RequestAccepted = "ACCEPTED"
	RequestRejected = "REJECTED"
)

/** --------------------ENTITIES-------------------- */
// FriendRequest is one directed request row. Rows are kept as history after
// they resolve; a fresh PENDING row is created on a later re-send.
type FriendRequest struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string    `gorm:"type:uuid;not null;index" json:"requesterId"`
	RecipientID string    `gorm:"type:uuid;not null;index" json:"recipientId"`
	Status      string    `gorm:"not null" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`

	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}

// Friendship is an undirected edge between two users. The stored A/B order
// carries no meaning; all lookups match either order. The friendship id is
// also the conversation id for the pair's messages.
type Friendship struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID   string    `gorm:"type:uuid;not null;index" json:"userAId"`
	UserBID   string    `gorm:"type:uuid;not null;index" json:"userBId"`
	CreatedAt time.Time `json:"createdAt"`

	UserA User `gorm:"foreignKey:UserAID" json:"-"`
	UserB User `gorm:"foreignKey:UserBID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// FriendRequestResponse is an incoming or outgoing pending request enriched
// with the counterpart's display identity.
type FriendRequestResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Picture   string    `json:"picture,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
