package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flow-chat-service/internal/database"
	"flow-chat-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
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

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u := &models.User{
		ID:       uuid.New().String(),
		Email:    username + "@example.com",
		Username: username,
		Name:     username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestFriendshipLookupsMatchEitherOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFriendshipRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	edge := &models.Friendship{ID: uuid.New().String(), UserAID: alice.ID, UserBID: bob.ID}
	require.NoError(t, repo.Create(ctx, edge))

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		exists, err := repo.ExistsBetween(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, exists)

		found, err := repo.FindBetween(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, edge.ID, found.ID)
	}

	exists, err := repo.ExistsBetween(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.FindBetween(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFriendshipFindByIDPreloadsParticipants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFriendshipRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	edge := &models.Friendship{ID: uuid.New().String(), UserAID: alice.ID, UserBID: bob.ID}
	require.NoError(t, repo.Create(ctx, edge))

	found, err := repo.FindByID(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.UserA.Username)
	assert.Equal(t, "bob", found.UserB.Username)

	_, err = repo.FindByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLatestByPairIsDirectional(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFriendRequestRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	older := &models.FriendRequest{
		ID: uuid.New().String(), RequesterID: alice.ID, RecipientID: bob.ID,
		Status: models.RequestRejected, CreatedAt: base,
	}
	newer := &models.FriendRequest{
		ID: uuid.New().String(), RequesterID: alice.ID, RecipientID: bob.ID,
		Status: models.RequestPending, CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	latest, err := repo.LatestByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)

	// The reverse direction has its own history.
	latest, err = repo.LatestByPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAcceptAndCreateFriendshipIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFriendRequestRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	req := &models.FriendRequest{
		ID: uuid.New().String(), RequesterID: alice.ID, RecipientID: bob.ID,
		Status: models.RequestPending,
	}
	require.NoError(t, repo.Create(ctx, req))

	edge := &models.Friendship{ID: uuid.New().String(), UserAID: alice.ID, UserBID: bob.ID}
	require.NoError(t, repo.AcceptAndCreateFriendship(ctx, req, edge))

	var stored models.FriendRequest
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, models.RequestAccepted, stored.Status)

	var count int64
	require.NoError(t, db.Model(&models.Friendship{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// A duplicate edge id rolls the whole transaction back.
	second := &models.FriendRequest{
		ID: uuid.New().String(), RequesterID: bob.ID, RecipientID: alice.ID,
		Status: models.RequestPending,
	}
	require.NoError(t, repo.Create(ctx, second))
	dup := &models.Friendship{ID: edge.ID, UserAID: bob.ID, UserBID: alice.ID}
	require.Error(t, repo.AcceptAndCreateFriendship(ctx, second, dup))

	var storedSecond models.FriendRequest
	require.NoError(t, db.First(&storedSecond, "id = ?", second.ID).Error)
	assert.Equal(t, models.RequestPending, storedSecond.Status)
}

func TestMessageQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	edge := &models.Friendship{ID: uuid.New().String(), UserAID: alice.ID, UserBID: bob.ID}
	require.NoError(t, db.Create(edge).Error)
	otherEdge := &models.Friendship{ID: uuid.New().String(), UserAID: alice.ID, UserBID: bob.ID}
	require.NoError(t, db.Create(otherEdge).Error)

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second NEEDLE", "third needle"} {
		require.NoError(t, repo.Create(ctx, &models.ChatMessage{
			ID: uuid.New().String(), FriendshipID: edge.ID, SenderID: alice.ID,
			Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// A message in another conversation never leaks in.
	require.NoError(t, repo.Create(ctx, &models.ChatMessage{
		ID: uuid.New().String(), FriendshipID: otherEdge.ID, SenderID: bob.ID,
		Content: "stray needle", CreatedAt: base,
	}))

	recent, err := repo.RecentByFriendship(ctx, edge.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third needle", recent[0].Content)
	assert.Equal(t, "second NEEDLE", recent[1].Content)
	assert.Equal(t, "alice", recent[0].Sender.Username)

	found, err := repo.SearchByContent(ctx, edge.ID, "needle", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "third needle", found[0].Content)
	assert.Equal(t, "second NEEDLE", found[1].Content)
}
