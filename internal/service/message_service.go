package service

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyMessage   = errors.New("message content cannot be empty")
	ErrMessageTooLong = errors.New("message content exceeds maximum length")
	ErrInvalidAuthor  = errors.New("invalid author id")
)

// Maximum accepted message length in bytes after trimming.
const maxMessageLength = 4096

// MessageService persists chat messages and serves the paginated feed.
type MessageService interface {
	// Create validates and stores a message and returns the hydrated
	// record (author username resolved, attachment if any).
	Create(ctx context.Context, authorID, content string) (*domain.Message, error)
	List(ctx context.Context, opts repository.MessageListOptions) ([]domain.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
}

// NewMessageService creates a new instance of messageService.
func NewMessageService(messageRepo repository.MessageRepository) MessageService {
	return &messageService{messageRepo: messageRepo}
}

func (s *messageService) Create(ctx context.Context, authorID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, ErrInvalidAuthor
	}

	id, err := s.messageRepo.Create(ctx, &domain.Message{
		AuthorID: author,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}

	return s.messageRepo.GetFullByID(ctx, id)
}

func (s *messageService) List(ctx context.Context, opts repository.MessageListOptions) ([]domain.Message, error) {
	return s.messageRepo.ListByTimeAsc(ctx, opts)
}
