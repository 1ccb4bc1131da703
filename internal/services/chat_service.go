package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"flow-chat-service/internal/models"
	"flow-chat-service/internal/repositories/postgres"
	apperrors "flow-chat-service/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatService is the message store for friendship-scoped conversations.
// A conversation is addressed by its friendship id; every read and write is
// guarded by a participant check against that friendship's two sides.
type ChatService struct {
	messageRepo    *postgres.MessageRepository
	friendshipRepo *postgres.FriendshipRepository
}

func NewChatService(messageRepo *postgres.MessageRepository, friendshipRepo *postgres.FriendshipRepository) *ChatService {
	return &ChatService{messageRepo: messageRepo, friendshipRepo: friendshipRepo}
}

// Conversation loads the friendship behind a conversation id with both
// participants attached.
func (s *ChatService) Conversation(ctx context.Context, conversationID string) (*models.Friendship, error) {
	f, err := s.friendshipRepo.FindByID(ctx, conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OtherParticipant returns whichever side of the friendship is not viewerID.
// The caller must have verified the viewer is a participant.
func OtherParticipant(f *models.Friendship, viewerID string) *models.User {
	if f.UserAID == viewerID {
		return &f.UserB
	}
	return &f.UserA
}

func assertParticipant(f *models.Friendship, userID string) error {
	if f.UserAID != userID && f.UserBID != userID {
		return apperrors.Forbidden("Not a participant of this conversation")
	}
	return nil
}

func (s *ChatService) participantConversation(ctx context.Context, conversationID, userID string) (*models.Friendship, error) {
	f, err := s.Conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := assertParticipant(f, userID); err != nil {
		return nil, err
	}
	return f, nil
}

// RecentMessages returns the newest messages of the conversation, newest
// first, bounded by limit.
func (s *ChatService) RecentMessages(ctx context.Context, conversationID, viewerID string, limit int) ([]models.ChatMessageResponse, error) {
	f, err := s.participantConversation(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.RecentByFriendship(ctx, f.ID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(msgs), nil
}

// SearchMessages does a case-insensitive substring search over the
// conversation's content, newest first. A blank query matches nothing.
func (s *ChatService) SearchMessages(ctx context.Context, conversationID, viewerID, query string, limit int) ([]models.ChatMessageResponse, error) {
	f, err := s.participantConversation(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return []models.ChatMessageResponse{}, nil
	}

	msgs, err := s.messageRepo.SearchByContent(ctx, f.ID, query, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(msgs), nil
}

// SearchWithContext returns matching messages together with the transcript
// around each match, so a client can render hits with surrounding context in
// one round trip.
//
// The window space is the most recent fetchLimit messages reversed into
// chronological order. Each locatable match marks the index range
// [i-windowBefore, i+windowAfter]; the union of marked indexes is emitted
// ascending, so overlapping windows merge without duplicates. Matches older
// than the fetched window contribute no context but still count and still
// appear in MatchedIDs.
func (s *ChatService) SearchWithContext(ctx context.Context, conversationID, viewerID, query string, limitMatches, windowBefore, windowAfter, fetchLimit int) (*models.ContextSearchResponse, error) {
	f, err := s.participantConversation(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}

	result := &models.ContextSearchResponse{
		Messages:   []models.ChatMessageResponse{},
		MatchedIDs: []string{},
	}
	if strings.TrimSpace(query) == "" {
		return result, nil
	}

	matches, err := s.messageRepo.SearchByContent(ctx, f.ID, query, limitMatches)
	if err != nil {
		return nil, err
	}

	recent, err := s.messageRepo.RecentByFriendship(ctx, f.ID, fetchLimit)
	if err != nil {
		return nil, err
	}
	// Newest-first from the store; reverse in place to chronological order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	result.MatchesCount = len(matches)
	for _, m := range matches {
		result.MatchedIDs = append(result.MatchedIDs, m.ID)
	}

	include := make(map[int]struct{})
	for _, match := range matches {
		idx := -1
		for i := range recent {
			if recent[i].ID == match.ID {
				idx = i
				break
			}
		}
		if idx == -1 {
			// Match is older than the fetched window; counted above,
			// no context to emit.
			continue
		}
		start := idx - windowBefore
		if start < 0 {
			start = 0
		}
		end := idx + windowAfter
		if end > len(recent)-1 {
			end = len(recent) - 1
		}
		for i := start; i <= end; i++ {
			include[i] = struct{}{}
		}
	}

	indexes := make([]int, 0, len(include))
	for i := range include {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		result.Messages = append(result.Messages, models.NewChatMessageResponse(&recent[i], &recent[i].Sender))
	}
	return result, nil
}

// SaveMessage persists a text message from sender into the conversation and
// returns the stored row's wire payload. The timestamp is server-assigned.
func (s *ChatService) SaveMessage(ctx context.Context, conversationID, senderID, content string) (models.ChatMessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return models.ChatMessageResponse{}, apperrors.BadRequest("Message content is required")
	}
	return s.save(ctx, conversationID, senderID, content, "", "", "")
}

// SaveMessageWithAttachment persists a message carrying an already-uploaded
// attachment. Content defaults to the empty string for attachment-only
// messages.
func (s *ChatService) SaveMessageWithAttachment(ctx context.Context, conversationID, senderID, content, attachmentURL, attachmentType, attachmentName string) (models.ChatMessageResponse, error) {
	if attachmentURL == "" {
		return models.ChatMessageResponse{}, apperrors.BadRequest("Attachment URL is required")
	}
	return s.save(ctx, conversationID, senderID, content, attachmentURL, attachmentType, attachmentName)
}

func (s *ChatService) save(ctx context.Context, conversationID, senderID, content, attachmentURL, attachmentType, attachmentName string) (models.ChatMessageResponse, error) {
	f, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return models.ChatMessageResponse{}, err
	}

	m := &models.ChatMessage{
		ID:             uuid.New().String(),
		FriendshipID:   f.ID,
		SenderID:       senderID,
		Content:        content,
		AttachmentURL:  attachmentURL,
		AttachmentType: attachmentType,
		AttachmentName: attachmentName,
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return models.ChatMessageResponse{}, err
	}

	sender := &f.UserA
	if f.UserBID == senderID {
		sender = &f.UserB
	}
	return models.NewChatMessageResponse(m, sender), nil
}

func toResponses(msgs []models.ChatMessage) []models.ChatMessageResponse {
	responses := make([]models.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		responses = append(responses, models.NewChatMessageResponse(&msgs[i], &msgs[i].Sender))
	}
	return responses
}
