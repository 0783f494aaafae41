package repository

import (
	"alcyxob/chat-app/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicateUser = RepositoryError("user with this username already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// LoadAlphabetical returns every user ordered by username ascending.
	// The presence broadcast merges this list with the connected set.
	LoadAlphabetical(ctx context.Context) ([]domain.User, error)
}

// MessageListOptions mirrors the feed pagination query: all fields are
// optional. Before restricts the window to messages older than the
// given message ID.
type MessageListOptions struct {
	Skip   *int64
	Limit  *int64
	Before *primitive.ObjectID
}

// MessageRepository defines the interface for interacting with messages.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error)
	// GetFullByID loads a message hydrated with its author username
	// and attachment, the shape broadcast to clients.
	GetFullByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error)
	// ListByTimeAsc returns the newest window selected by opts,
	// ordered oldest first.
	ListByTimeAsc(ctx context.Context, opts MessageListOptions) ([]domain.Message, error)
}

// FileRepository defines the interface for saved-file records.
type FileRepository interface {
	Create(ctx context.Context, file *domain.SavedFile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SavedFile, error)
}
