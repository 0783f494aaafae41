package service

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/imaging"
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/storage"
	"context"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- in-memory repository fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return primitive.NilObjectID, repository.ErrDuplicateUser
	}
	user.ID = primitive.NewObjectID()
	clone := *user
	r.users[user.Username] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) LoadAlphabetical(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*domain.Message
	username string // author username resolved on load
	err      error
}

func newFakeMessageRepo(username string) *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[primitive.ObjectID]*domain.Message),
		username: username,
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error) {
	if r.err != nil {
		return primitive.NilObjectID, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = primitive.NewObjectID()
	clone := *message
	r.messages[message.ID] = &clone
	return message.ID, nil
}

func (r *fakeMessageRepo) GetFullByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *message
	clone.Author = &domain.Author{Username: r.username}
	return &clone, nil
}

func (r *fakeMessageRepo) ListByTimeAsc(ctx context.Context, opts repository.MessageListOptions) ([]domain.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[primitive.ObjectID]*domain.SavedFile
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[primitive.ObjectID]*domain.SavedFile)}
}

func (r *fakeFileRepo) Create(ctx context.Context, file *domain.SavedFile) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file.ID = primitive.NewObjectID()
	clone := *file
	r.files[file.ID] = &clone
	return file.ID, nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SavedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *file
	return &clone, nil
}

// --- storage / imaging fakes ---

type fakeFileStore struct {
	mu        sync.Mutex
	published map[string]string // key -> localPath
	err       error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{published: make(map[string]string)}
}

func (s *fakeFileStore) Publish(ctx context.Context, key, localPath, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[key] = localPath
	return nil
}

func (s *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, repository.ErrNotFound
}

func (s *fakeFileStore) DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", storage.ErrNoDirectURL
}

func (s *fakeFileStore) Delete(ctx context.Context, key string) error {
	return nil
}

type fakeResizer struct {
	calls int
	err   error
}

func (r *fakeResizer) CreateIcon(srcPath string) (imaging.Derivative, error) {
	r.calls++
	if r.err != nil {
		return imaging.Derivative{}, r.err
	}
	return imaging.Derivative{
		Path: srcPath + ".icon.png",
		Meta: imaging.Meta{Width: 64, Height: 64, Size: 100},
	}, nil
}

func (r *fakeResizer) CreatePreview(srcPath string) (imaging.Derivative, error) {
	r.calls++
	if r.err != nil {
		return imaging.Derivative{}, r.err
	}
	return imaging.Derivative{
		Path: srcPath + ".preview.png",
		Meta: imaging.Meta{Width: 320, Height: 240, Size: 400},
	}, nil
}
