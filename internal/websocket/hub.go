package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"flow-chat-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdentityResolver verifies a bearer token and resolves the user behind it.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}

// UserDirectory resolves a bound user id back to a user record.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// MessageSaver persists a message into a conversation. Authorization
// (participancy) happens inside; the hub itself has no knowledge of who
// belongs to which conversation.
type MessageSaver interface {
	SaveMessage(ctx context.Context, conversationID, senderID, content string) (models.ChatMessageResponse, error)
}

const (
	redisChannelPrefix = "conversation:"

	// typingSuffix names a conversation's typing sub-topic, locally and on
	// the redis wire. Typing traffic never mixes into the message topic.
	typingSuffix = ":typing"
)

// Hub coordinates websocket clients: registration, conversation-channel
// subscriptions and best-effort fan-out. With a redis client attached it
// also relays broadcasts across instances via pub/sub.
type Hub struct {
	id string

	// Registered clients
	clients map[*Client]bool

	// Channel subscriptions, keyed by conversation id
	channelClients map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Session identity bridge
	sessions *SessionTable

	resolver IdentityResolver
	users    UserDirectory
	chat     MessageSaver

	// Redis pub/sub for cross-instance fan-out; nil disables it
	redis  *redis.Client
	pubsub *redis.PubSub

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

func NewHub(resolver IdentityResolver, users UserDirectory, chat MessageSaver, redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		id:             uuid.New().String(),
		clients:        make(map[*Client]bool),
		channelClients: make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		sessions:       NewSessionTable(),
		resolver:       resolver,
		users:          users,
		chat:           chat,
		redis:          redisClient,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Sessions exposes the binding table for tests and handlers.
func (h *Hub) Sessions() *SessionTable {
	return h.sessions
}

func (h *Hub) Run() {
	if h.redis != nil {
		h.pubsub = h.redis.PSubscribe(h.ctx, redisChannelPrefix+"*")
		go h.redisListener()
	}

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	slog.Info("Client registered", "clientID", client.id)
}

// unregisterClient tears a connection down: drops it from every channel,
// discards its session binding and closes its send queue.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		for channelID, subscribers := range h.channelClients {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channelClients, channelID)
			}
		}
		client.closeSend()
		slog.Info("Client unregistered", "clientID", client.id)
	}
	h.mu.Unlock()

	h.sessions.Remove(client.id)
}

// subscribe joins the conversation's message topic and its typing sub-topic
// together; a subscriber always sees both streams.
func (h *Hub) subscribe(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range []string{conversationID, conversationID + typingSuffix} {
		if h.channelClients[topic] == nil {
			h.channelClients[topic] = make(map[*Client]bool)
		}
		h.channelClients[topic][client] = true
	}
}

func (h *Hub) unsubscribe(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range []string{conversationID, conversationID + typingSuffix} {
		if subscribers, ok := h.channelClients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channelClients, topic)
			}
		}
	}
}

// PublishMessage broadcasts a persisted message to every subscriber of its
// conversation channel. Delivery is best-effort: failures are logged and
// never returned, since the message is already durably committed.
func (h *Hub) PublishMessage(conversationID string, dto models.ChatMessageResponse) {
	data, err := json.Marshal(dto)
	if err != nil {
		slog.Error("Failed to marshal message payload", "conversationId", conversationID, "error", err)
		return
	}
	h.deliverLocal(conversationID, data)
	h.publishRedis(redisChannelPrefix+conversationID, data)
}

// PublishTyping broadcasts a typing indicator to the conversation's typing
// sub-topic. Not persisted.
func (h *Hub) PublishTyping(conversationID string, event TypingEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal typing event", "conversationId", conversationID, "error", err)
		return
	}
	h.deliverLocal(conversationID+typingSuffix, data)
	h.publishRedis(redisChannelPrefix+conversationID+typingSuffix, data)
}

func (h *Hub) deliverLocal(topic string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.channelClients[topic] {
		select {
		case client.send <- data:
		default:
			slog.Warn("Dropping frame for slow client", "clientID", client.id, "topic", topic)
		}
	}
}

func (h *Hub) publishRedis(channel string, payload []byte) {
	if h.redis == nil {
		return
	}
	wrapped, err := json.Marshal(envelope{Origin: h.id, Payload: payload})
	if err != nil {
		slog.Error("Failed to wrap redis payload", "channel", channel, "error", err)
		return
	}
	if err := h.redis.Publish(h.ctx, channel, wrapped).Err(); err != nil {
		slog.Error("Redis publish failed", "channel", channel, "error", err)
	}
}

// redisListener delivers broadcasts published by other instances to this
// instance's local subscribers.
func (h *Hub) redisListener() {
	ch := h.pubsub.Channel()
	for msg := range ch {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			slog.Error("Malformed redis payload", "channel", msg.Channel, "error", err)
			continue
		}
		if env.Origin == h.id {
			continue
		}
		// The redis channel minus the prefix is the local topic, typing
		// suffix included.
		h.deliverLocal(strings.TrimPrefix(msg.Channel, redisChannelPrefix), env.Payload)
	}
}

// handleFrame processes one inbound frame from a client. The connect frame
// is the handshake: a valid token binds the connection's identity for its
// remaining lifetime, an invalid or missing one leaves the connection
// unauthenticated without closing it. Every other action is silently
// dropped until a binding exists.
func (h *Hub) handleFrame(client *Client, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Debug("Malformed frame", "clientID", client.id, "error", err)
		return
	}

	if frame.Action == ActionConnect {
		user, err := h.resolver.ResolveUser(h.ctx, frame.Token)
		if err != nil {
			slog.Debug("Connect frame with unusable token", "clientID", client.id, "error", err)
			return
		}
		h.sessions.Bind(client.id, user.ID)
		slog.Info("Session bound", "clientID", client.id, "userID", user.ID)
		return
	}

	userID, ok := h.sessions.Lookup(client.id)
	if !ok {
		slog.Debug("Dropping frame from unauthenticated connection", "clientID", client.id, "action", frame.Action)
		return
	}

	switch frame.Action {
	case ActionSubscribe:
		if frame.ConversationID != "" {
			h.subscribe(client, frame.ConversationID)
		}

	case ActionUnsubscribe:
		if frame.ConversationID != "" {
			h.unsubscribe(client, frame.ConversationID)
		}

	case ActionMessage:
		dto, err := h.chat.SaveMessage(h.ctx, frame.ConversationID, userID, frame.Content)
		if err != nil {
			// Streaming has no per-message acknowledgement; the sender
			// simply sees no effect.
			slog.Warn("Message rejected", "clientID", client.id, "conversationId", frame.ConversationID, "error", err)
			return
		}
		h.PublishMessage(frame.ConversationID, dto)

	case ActionTyping:
		user, err := h.users.FindByID(h.ctx, userID)
		if err != nil {
			slog.Warn("Typing sender lookup failed", "clientID", client.id, "userID", userID, "error", err)
			return
		}
		h.PublishTyping(frame.ConversationID, TypingEvent{
			Type:     "typing",
			UserID:   user.ID,
			UserName: user.Display(),
			IsTyping: frame.IsTyping,
		})

	default:
		slog.Debug("Unknown action", "clientID", client.id, "action", frame.Action)
	}
}
