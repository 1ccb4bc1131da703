package postgres

import (
	"context"
	"errors"

	"flow-chat-service/internal/models"

	"gorm.io/gorm"
)

type FriendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) *FriendRequestRepository {
	return &FriendRequestRepository{db}
}

func (r *FriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// LatestByPair returns the most recent request for the exact
// requester→recipient direction, or (nil, nil) when none exists. The
// reverse direction is a separate row and never matches here.
func (r *FriendRequestRepository) LatestByPair(ctx context.Context, requesterID, recipientID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
		Order("created_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDAndRecipient scopes the lookup so only the addressed party can
// resolve the request.
func (r *FriendRequestRepository) FindByIDAndRecipient(ctx context.Context, id, recipientID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		First(&req, "id = ? AND recipient_id = ?", id, recipientID).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRequestRepository) PendingForRecipient(ctx context.Context, recipientID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("recipient_id = ? AND status = ?", recipientID, models.RequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *FriendRequestRepository) PendingForRequester(ctx context.Context, requesterID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Recipient").
		Where("requester_id = ? AND status = ?", requesterID, models.RequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *FriendRequestRepository) UpdateStatus(ctx context.Context, req *models.FriendRequest, status string) error {
	return r.db.WithContext(ctx).
		Model(req).
		Update("status", status).Error
}

// AcceptAndCreateFriendship flips the request to ACCEPTED and writes the
// friendship edge in one transaction. A crash between the two writes must
// not leave an accepted request without its edge.
func (r *FriendRequestRepository) AcceptAndCreateFriendship(ctx context.Context, req *models.FriendRequest, f *models.Friendship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(req).Update("status", models.RequestAccepted).Error; err != nil {
			return err
		}
		return tx.Create(f).Error
	})
}
