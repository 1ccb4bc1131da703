package routes

import (
	"time"

	"flow-chat-service/internal/adapters/activity"
	"flow-chat-service/internal/adapters/blob"
	"flow-chat-service/internal/api/handlers"
	"flow-chat-service/internal/api/middleware"
	"flow-chat-service/internal/repositories/postgres"
	"flow-chat-service/internal/services"
	"flow-chat-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	engine        *gin.Engine
	hub           *websocket.Hub
	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	friendHandler *handlers.FriendHandler
	chatHandler   *handlers.ChatHandler
	wsHandler     *handlers.WebSocketHandler
	authMW        *middleware.AuthMiddleware
}

func NewRouter(
	db *gorm.DB,
	redisClient *redis.Client,
	blobStore blob.Store,
	activityLog activity.Logger,
	jwtSecret string,
	jwtExpire time.Duration,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	requestRepo := postgres.NewFriendRequestRepository(db)
	friendshipRepo := postgres.NewFriendshipRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, jwtSecret, jwtExpire)
	userService := services.NewUserService(userRepo)
	friendService := services.NewFriendService(requestRepo, friendshipRepo, userRepo, activityLog)
	chatService := services.NewChatService(messageRepo, friendshipRepo)

	// The hub resolves identities through the auth service and persists
	// inbound frames through the chat service.
	hub := websocket.NewHub(authService, userService, chatService, redisClient)

	return &Router{
		engine:        engine,
		hub:           hub,
		authHandler:   handlers.NewAuthHandler(authService),
		userHandler:   handlers.NewUserHandler(userService),
		friendHandler: handlers.NewFriendHandler(friendService, userService),
		chatHandler:   handlers.NewChatHandler(chatService, friendService, userService, blobStore, hub),
		wsHandler:     handlers.NewWebSocketHandler(hub),
		authMW:        middleware.NewAuthMiddleware(jwtSecret),
	}
}

// Hub exposes the websocket hub so the caller can run and stop it.
func (r *Router) Hub() *websocket.Hub {
	return r.hub
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// Public routes
	api.POST("/auth/register", r.authHandler.Register)
	api.POST("/auth/login", r.authHandler.Login)

	// The upgrade itself is open; frames are dropped until a connect frame
	// binds the session to a user.
	api.GET("/ws", r.wsHandler.Serve)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		{
			users.GET("/me", r.userHandler.GetMe)
			users.GET("/search", r.userHandler.Search)
		}

		friends := auth.Group("/friends")
		{
			friends.GET("/", r.friendHandler.ListFriends)
			friends.GET("/requests", r.friendHandler.ListIncoming)
			friends.GET("/outgoing", r.friendHandler.ListOutgoing)
			friends.POST("/request", r.friendHandler.SendRequest)
			friends.POST("/requests/:id/accept", r.friendHandler.AcceptRequest)
			friends.POST("/requests/:id/reject", r.friendHandler.RejectRequest)
			friends.DELETE("/:id", r.friendHandler.RemoveFriend)
		}

		chats := auth.Group("/chats")
		{
			chats.POST("/start", r.chatHandler.StartConversation)
			chats.GET("/with/:friendUserId", r.chatHandler.ConversationWith)
			chats.GET("/:friendshipId/messages", r.chatHandler.GetMessages)
			chats.GET("/:friendshipId/participant", r.chatHandler.GetParticipant)
			chats.GET("/:friendshipId/search", r.chatHandler.SearchMessages)
			chats.GET("/:friendshipId/search-context", r.chatHandler.SearchWithContext)
			chats.POST("/:friendshipId/upload", r.chatHandler.UploadAndSend)
		}
	}
}
