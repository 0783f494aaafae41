package main

import (
	"alcyxob/chat-app/internal/api"
	"alcyxob/chat-app/internal/chat"
	"alcyxob/chat-app/internal/config"
	"alcyxob/chat-app/internal/imaging"
	"alcyxob/chat-app/internal/repository/mongo"
	"alcyxob/chat-app/internal/service"
	"alcyxob/chat-app/internal/storage"
	"alcyxob/chat-app/internal/upload"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Chat App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureMessageIndexes(ctx, appDB.Collection("messages"))
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage...")
	var fileStore storage.FileStore
	switch cfg.Storage.Provider {
	case "s3":
		fileStore, err = storage.NewS3Store(cfg.S3)
	default:
		fileStore, err = storage.NewLocalStore(cfg.Uploads.Dir)
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize file storage: %v", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	messageRepo := mongo.NewMongoMessageRepository(appDB)
	fileRepo := mongo.NewMongoFileRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	messageService := service.NewMessageService(messageRepo)

	resizer := imaging.NewResizer(
		cfg.Uploads.Dir,
		imaging.Dimensions{Width: cfg.Uploads.IconWidth, Height: cfg.Uploads.IconHeight},
		imaging.Dimensions{Width: cfg.Uploads.PreviewWidth, Height: cfg.Uploads.PreviewHeight},
	)
	attachmentService := service.NewAttachmentService(messageRepo, fileRepo, fileStore, resizer)

	// --- Initialize Realtime Core ---
	tracker, err := upload.NewTracker(upload.Config{
		Dir:         cfg.Uploads.Dir,
		MaxFileSize: cfg.Uploads.MaxFileSize,
		MaxPartSize: cfg.Uploads.MaxPartSize,
		IdleTimeout: cfg.Uploads.IdleTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize upload tracker: %v", err)
	}

	hub := chat.NewHub(userRepo, messageService, attachmentService, tracker, logger)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up routes...")
	api.SetupRoutes(router, authService, messageService, fileRepo, fileStore, hub)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
