package postgres

import (
	"context"
	"errors"

	"flow-chat-service/internal/models"

	"gorm.io/gorm"
)

// FriendshipRepository stores accepted friendships as undirected edges.
// The (user_a_id, user_b_id) storage order is arbitrary; every lookup
// matches the pair in either order.
type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db}
}

func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FriendshipRepository) FindByID(ctx context.Context, id string) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		First(&f, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FriendshipRepository) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("(user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// FindBetween returns the edge for the unordered pair, or (nil, nil) when
// the two users are not friends.
func (r *FriendshipRepository) FindBetween(ctx context.Context, a, b string) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Where("(user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)", a, b, b, a).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FriendshipRepository) ListForUser(ctx context.Context, userID string) ([]models.Friendship, error) {
	var list []models.Friendship
	err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&list).Error
	return list, err
}

func (r *FriendshipRepository) Delete(ctx context.Context, f *models.Friendship) error {
	return r.db.WithContext(ctx).Delete(f).Error
}
