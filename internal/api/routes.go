package api

import (
	"alcyxob/chat-app/internal/chat"
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/service"
	"alcyxob/chat-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the application's routes on the Gin engine.
func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	messageService service.MessageService,
	fileRepo repository.FileRepository,
	fileStore storage.FileStore,
	hub *chat.Hub,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(authService)
	messageHandler := NewMessageHandler(messageService)
	fileHandler := NewFileHandler(fileRepo, fileStore)
	wsHandler := NewWsHandler(authService, hub)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/users", userHandler.Register)
		apiGroup.GET("/users/availability", userHandler.Availability)

		apiGroup.POST("/auth", authHandler.SignIn)
		apiGroup.DELETE("/auth", authHandler.SignOut)

		protected := apiGroup.Group("")
		protected.Use(AuthMiddleware(authService))
		{
			protected.GET("/messages", messageHandler.List)
		}
	}

	router.GET("/files/:id", fileHandler.Get)
	router.GET("/ws", wsHandler.Serve)
}
