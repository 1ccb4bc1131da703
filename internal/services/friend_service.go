package services

import (
	"context"
	"errors"
	"fmt"

	"flow-chat-service/internal/adapters/activity"
	"flow-chat-service/internal/models"
	"flow-chat-service/internal/repositories/postgres"
	apperrors "flow-chat-service/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendService owns the friend-request lifecycle and the friendship graph.
// Requests move PENDING→ACCEPTED or PENDING→REJECTED and never leave a
// terminal state; acceptance writes the friendship edge in the same
// transaction as the status flip.
type FriendService struct {
	requestRepo    *postgres.FriendRequestRepository
	friendshipRepo *postgres.FriendshipRepository
	userRepo       *postgres.UserRepository
	activityLog    activity.Logger
}

func NewFriendService(
	requestRepo *postgres.FriendRequestRepository,
	friendshipRepo *postgres.FriendshipRepository,
	userRepo *postgres.UserRepository,
	activityLog activity.Logger,
) *FriendService {
	return &FriendService{
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		activityLog:    activityLog,
	}
}

// SendRequest creates a PENDING request from requester to recipient.
// Re-sending while the previous request in this exact direction is still
// PENDING returns that request unchanged instead of creating a duplicate.
// A pending request in the reverse direction is a separate row and does not
// interfere.
func (s *FriendService) SendRequest(ctx context.Context, requester, recipient *models.User) (*models.FriendRequest, error) {
	if requester.ID == recipient.ID {
		return nil, apperrors.BadRequest("Cannot send friend request to yourself")
	}

	exists, err := s.friendshipRepo.ExistsBetween(ctx, requester.ID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("Already friends")
	}

	existing, err := s.requestRepo.LatestByPair(ctx, requester.ID, recipient.ID)
	if err != nil {
		return nil, err
	}
	// Only a live PENDING row blocks a new request. A resolved latest row
	// (REJECTED, or ACCEPTED whose edge was later removed by an unfriend)
	// stays as history and a fresh request starts the cycle over.
	if existing != nil && existing.Status == models.RequestPending {
		return existing, nil
	}

	req := &models.FriendRequest{
		ID:          uuid.New().String(),
		RequesterID: requester.ID,
		RecipientID: recipient.ID,
		Status:      models.RequestPending,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.activityLog.Log(requester.ID, "FRIEND_REQUEST_SENT",
		fmt.Sprintf("Sent friend request to %s", recipient.Username))
	return req, nil
}

// AcceptRequest transitions a PENDING request addressed to recipient into
// ACCEPTED and creates the friendship edge atomically.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID string, recipient *models.User) (*models.Friendship, error) {
	req, err := s.requestRepo.FindByIDAndRecipient(ctx, requestID, recipient.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Friend request not found")
	}
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, apperrors.Conflict("Request not pending")
	}

	friendship := &models.Friendship{
		ID:      uuid.New().String(),
		UserAID: req.RequesterID,
		UserBID: req.RecipientID,
	}
	if err := s.requestRepo.AcceptAndCreateFriendship(ctx, req, friendship); err != nil {
		return nil, err
	}

	s.activityLog.Log(recipient.ID, "FRIEND_REQUEST_ACCEPTED",
		fmt.Sprintf("Accepted friend request %s", requestID))
	return friendship, nil
}

// RejectRequest transitions a PENDING request addressed to recipient into
// REJECTED. No friendship edge is created.
func (s *FriendService) RejectRequest(ctx context.Context, requestID string, recipient *models.User) error {
	req, err := s.requestRepo.FindByIDAndRecipient(ctx, requestID, recipient.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Friend request not found")
	}
	if err != nil {
		return err
	}
	if req.Status != models.RequestPending {
		return apperrors.Conflict("Request not pending")
	}

	if err := s.requestRepo.UpdateStatus(ctx, req, models.RequestRejected); err != nil {
		return err
	}

	s.activityLog.Log(recipient.ID, "FRIEND_REQUEST_REJECTED",
		fmt.Sprintf("Rejected friend request %s", requestID))
	return nil
}

// ListIncoming returns the PENDING requests addressed to user, enriched with
// each requester's display identity.
func (s *FriendService) ListIncoming(ctx context.Context, user *models.User) ([]models.FriendRequestResponse, error) {
	reqs, err := s.requestRepo.PendingForRecipient(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.FriendRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		responses = append(responses, models.FriendRequestResponse{
			ID:        r.ID,
			UserID:    r.RequesterID,
			Name:      r.Requester.Display(),
			Username:  r.Requester.Username,
			Picture:   r.Requester.ProfilePictureURL,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return responses, nil
}

// ListOutgoing returns the PENDING requests user has sent, enriched with
// each recipient's display identity.
func (s *FriendService) ListOutgoing(ctx context.Context, user *models.User) ([]models.FriendRequestResponse, error) {
	reqs, err := s.requestRepo.PendingForRequester(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.FriendRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		responses = append(responses, models.FriendRequestResponse{
			ID:        r.ID,
			UserID:    r.RecipientID,
			Name:      r.Recipient.Display(),
			Username:  r.Recipient.Username,
			Picture:   r.Recipient.ProfilePictureURL,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return responses, nil
}

// ListFriends returns the other side of every friendship edge touching user.
func (s *FriendService) ListFriends(ctx context.Context, user *models.User) ([]models.UserResponse, error) {
	edges, err := s.friendshipRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserResponse, 0, len(edges))
	for i := range edges {
		other := &edges[i].UserA
		if edges[i].UserAID == user.ID {
			other = &edges[i].UserB
		}
		friends = append(friends, models.NewUserResponse(other))
	}
	return friends, nil
}

// RemoveFriend deletes the friendship edge between user and friendUserID,
// whichever order it was stored in.
func (s *FriendService) RemoveFriend(ctx context.Context, user *models.User, friendUserID string) error {
	if _, err := s.userRepo.FindByID(ctx, friendUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}

	edge, err := s.friendshipRepo.FindBetween(ctx, user.ID, friendUserID)
	if err != nil {
		return err
	}
	if edge == nil {
		return apperrors.NotFound("Friendship not found")
	}

	if err := s.friendshipRepo.Delete(ctx, edge); err != nil {
		return err
	}

	s.activityLog.Log(user.ID, "FRIEND_REMOVED",
		fmt.Sprintf("Removed friend %s", friendUserID))
	return nil
}

// ConversationIDBetween resolves the conversation (friendship) id between
// user and friendUserID, or NotFound when they are not friends.
func (s *FriendService) ConversationIDBetween(ctx context.Context, userID, friendUserID string) (string, error) {
	edge, err := s.friendshipRepo.FindBetween(ctx, userID, friendUserID)
	if err != nil {
		return "", err
	}
	if edge == nil {
		return "", apperrors.NotFound("Friendship not found")
	}
	return edge.ID, nil
}
