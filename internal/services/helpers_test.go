package services

import (
	"fmt"
	"testing"
	"time"

	"flow-chat-service/internal/database"
	"flow-chat-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u := &models.User{
		ID:       uuid.New().String(),
		Email:    username + "@example.com",
		Username: username,
		Name:     username,
		Password: "hashed",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newFriendship(t *testing.T, db *gorm.DB, a, b *models.User) *models.Friendship {
	t.Helper()

	f := &models.Friendship{
		ID:      uuid.New().String(),
		UserAID: a.ID,
		UserBID: b.ID,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func seedMessage(t *testing.T, db *gorm.DB, friendshipID, senderID, content string, at time.Time) *models.ChatMessage {
	t.Helper()

	m := &models.ChatMessage{
		ID:           uuid.New().String(),
		FriendshipID: friendshipID,
		SenderID:     senderID,
		Content:      content,
		CreatedAt:    at,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
