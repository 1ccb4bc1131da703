package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"flow-chat-service/internal/models"
	apperrors "flow-chat-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	// token -> user
	users map[string]*models.User
}

func (s *stubResolver) ResolveUser(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, apperrors.Unauthorized("Invalid token")
}

type stubDirectory struct {
	users map[string]*models.User
}

func (s *stubDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("User not found")
}

type savedMessage struct {
	conversationID string
	senderID       string
	content        string
}

type stubSaver struct {
	saved []savedMessage
	err   error
}

func (s *stubSaver) SaveMessage(_ context.Context, conversationID, senderID, content string) (models.ChatMessageResponse, error) {
	if s.err != nil {
		return models.ChatMessageResponse{}, s.err
	}
	s.saved = append(s.saved, savedMessage{conversationID, senderID, content})
	return models.ChatMessageResponse{
		ID:             "msg-1",
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}, nil
}

func newTestHub(saver *stubSaver) (*Hub, *models.User) {
	alice := &models.User{ID: "user-alice", Username: "alice", Name: "Alice"}
	resolver := &stubResolver{users: map[string]*models.User{"good-token": alice}}
	directory := &stubDirectory{users: map[string]*models.User{alice.ID: alice}}
	return NewHub(resolver, directory, saver, nil), alice
}

// newTestClient registers a client without starting its pumps, so frames can
// be read straight off the send queue.
func newTestClient(h *Hub) *Client {
	c := NewClient(h, nil)
	h.registerClient(c)
	return c
}

func frame(t *testing.T, f InboundFrame) []byte {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	return data
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	default:
		t.Fatal("expected a frame on the send queue")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestConnectFrameBindsSession(t *testing.T) {
	hub, alice := newTestHub(&stubSaver{})
	client := newTestClient(hub)

	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))

	userID, ok := hub.Sessions().Lookup(client.ID())
	require.True(t, ok)
	assert.Equal(t, alice.ID, userID)
}

func TestConnectFrameWithBadTokenLeavesConnectionOpen(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	client := newTestClient(hub)

	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionConnect, Token: "bad-token"}))

	// No binding, no outbound error frame; the connection just stays
	// unauthenticated.
	_, ok := hub.Sessions().Lookup(client.ID())
	assert.False(t, ok)
	assertNoFrame(t, client)
}

func TestUnauthenticatedFramesAreDropped(t *testing.T) {
	saver := &stubSaver{}
	hub, _ := newTestHub(saver)
	client := newTestClient(hub)

	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionSubscribe, ConversationID: "conv-1"}))
	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionMessage, ConversationID: "conv-1", Content: "hi"}))

	assert.Empty(t, saver.saved)
	hub.mu.RLock()
	assert.Empty(t, hub.channelClients)
	hub.mu.RUnlock()
}

func TestMessageFrameSavesAndFansOut(t *testing.T) {
	saver := &stubSaver{}
	hub, alice := newTestHub(saver)

	sender := newTestClient(hub)
	listener := newTestClient(hub)
	hub.handleFrame(sender, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))
	hub.handleFrame(listener, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))
	hub.handleFrame(sender, frame(t, InboundFrame{Action: ActionSubscribe, ConversationID: "conv-1"}))
	hub.handleFrame(listener, frame(t, InboundFrame{Action: ActionSubscribe, ConversationID: "conv-1"}))

	hub.handleFrame(sender, frame(t, InboundFrame{Action: ActionMessage, ConversationID: "conv-1", Content: "hello"}))

	require.Len(t, saver.saved, 1)
	assert.Equal(t, savedMessage{"conv-1", alice.ID, "hello"}, saver.saved[0])

	// Persist first, then fan out to every subscriber including the sender.
	for _, c := range []*Client{sender, listener} {
		var dto models.ChatMessageResponse
		require.NoError(t, json.Unmarshal(recv(t, c), &dto))
		assert.Equal(t, "hello", dto.Content)
		assert.Equal(t, "conv-1", dto.ConversationID)
	}
}

func TestRejectedMessageIsNotBroadcast(t *testing.T) {
	saver := &stubSaver{err: apperrors.Forbidden("Not a participant of this conversation")}
	hub, _ := newTestHub(saver)
	client := newTestClient(hub)
	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))
	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionSubscribe, ConversationID: "conv-1"}))

	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionMessage, ConversationID: "conv-1", Content: "hi"}))

	assertNoFrame(t, client)
}

func TestSubscriptionScopesDelivery(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	subscribed := newTestClient(hub)
	other := newTestClient(hub)
	hub.subscribe(subscribed, "conv-1")
	hub.subscribe(other, "conv-2")

	hub.PublishMessage("conv-1", models.ChatMessageResponse{ID: "m1", ConversationID: "conv-1", Content: "hey"})

	recv(t, subscribed)
	assertNoFrame(t, other)

	// After unsubscribing nothing is delivered.
	hub.unsubscribe(subscribed, "conv-1")
	hub.PublishMessage("conv-1", models.ChatMessageResponse{ID: "m2", ConversationID: "conv-1"})
	assertNoFrame(t, subscribed)
}

func TestTypingFrameBroadcastsWithoutPersisting(t *testing.T) {
	saver := &stubSaver{}
	hub, alice := newTestHub(saver)
	typer := newTestClient(hub)
	watcher := newTestClient(hub)
	hub.handleFrame(typer, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))
	hub.subscribe(watcher, "conv-1")

	hub.handleFrame(typer, frame(t, InboundFrame{Action: ActionTyping, ConversationID: "conv-1", IsTyping: true}))

	var event TypingEvent
	require.NoError(t, json.Unmarshal(recv(t, watcher), &event))
	assert.Equal(t, "typing", event.Type)
	assert.Equal(t, alice.ID, event.UserID)
	assert.Equal(t, "Alice", event.UserName)
	assert.True(t, event.IsTyping)

	assert.Empty(t, saver.saved)
}

func TestTypingTopicIsSeparateFromMessageTopic(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	watcher := newTestClient(hub)

	// A client present only on the typing sub-topic never sees messages,
	// and vice versa.
	hub.mu.Lock()
	hub.channelClients["conv-1"+typingSuffix] = map[*Client]bool{watcher: true}
	hub.mu.Unlock()

	hub.PublishMessage("conv-1", models.ChatMessageResponse{ID: "m1", ConversationID: "conv-1", Content: "hey"})
	assertNoFrame(t, watcher)

	hub.PublishTyping("conv-1", TypingEvent{Type: "typing", UserID: "user-alice", IsTyping: true})
	recv(t, watcher)

	reader := newTestClient(hub)
	hub.mu.Lock()
	hub.channelClients["conv-1"] = map[*Client]bool{reader: true}
	hub.mu.Unlock()

	hub.PublishTyping("conv-1", TypingEvent{Type: "typing", UserID: "user-alice", IsTyping: false})
	assertNoFrame(t, reader)
}

func TestSubscribeJoinsBothTopics(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	client := newTestClient(hub)
	hub.subscribe(client, "conv-1")

	hub.mu.RLock()
	assert.Contains(t, hub.channelClients, "conv-1")
	assert.Contains(t, hub.channelClients, "conv-1"+typingSuffix)
	hub.mu.RUnlock()

	hub.unsubscribe(client, "conv-1")
	hub.mu.RLock()
	assert.Empty(t, hub.channelClients)
	hub.mu.RUnlock()
}

func TestUnregisterRemovesBindingAndSubscriptions(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	client := newTestClient(hub)
	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionConnect, Token: "good-token"}))
	hub.handleFrame(client, frame(t, InboundFrame{Action: ActionSubscribe, ConversationID: "conv-1"}))

	hub.unregisterClient(client)

	_, ok := hub.Sessions().Lookup(client.ID())
	assert.False(t, ok)
	hub.mu.RLock()
	assert.Empty(t, hub.channelClients)
	assert.Empty(t, hub.clients)
	hub.mu.RUnlock()

	// The send queue is closed exactly once; a second unregister is safe.
	hub.unregisterClient(client)
	_, open := <-client.send
	assert.False(t, open)
}

func TestMalformedFrameIsIgnored(t *testing.T) {
	hub, _ := newTestHub(&stubSaver{})
	client := newTestClient(hub)

	hub.handleFrame(client, []byte("{not json"))
	hub.handleFrame(client, frame(t, InboundFrame{Action: "dance"}))

	assertNoFrame(t, client)
}
