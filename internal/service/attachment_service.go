package service

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/imaging"
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/storage"
	"alcyxob/chat-app/internal/upload"
	"context"
	"fmt"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DerivativeGenerator produces icon and preview images from a
// completed upload. *imaging.Resizer is the production implementation.
type DerivativeGenerator interface {
	CreateIcon(srcPath string) (imaging.Derivative, error)
	CreatePreview(srcPath string) (imaging.Derivative, error)
}

// AttachmentService turns a completed upload into a persisted message
// carrying an attachment: derivatives are generated for eligible image
// types, every artifact is published to the file store and recorded,
// and an empty-content message is created with the assembled URL and
// metadata maps.
type AttachmentService interface {
	CreateFromUpload(ctx context.Context, authorID string, info upload.FileInfo, path string) (*domain.Message, error)
}

type attachmentService struct {
	messageRepo repository.MessageRepository
	fileRepo    repository.FileRepository
	fileStore   storage.FileStore
	resizer     DerivativeGenerator
}

// NewAttachmentService creates a new instance of attachmentService.
func NewAttachmentService(
	messageRepo repository.MessageRepository,
	fileRepo repository.FileRepository,
	fileStore storage.FileStore,
	resizer DerivativeGenerator,
) AttachmentService {
	return &attachmentService{
		messageRepo: messageRepo,
		fileRepo:    fileRepo,
		fileStore:   fileStore,
		resizer:     resizer,
	}
}

func (s *attachmentService) CreateFromUpload(ctx context.Context, authorID string, info upload.FileInfo, path string) (*domain.Message, error) {
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, ErrInvalidAuthor
	}

	urls := map[string]string{}
	metadata := map[string]domain.ImageMeta{}

	// Derivatives are generated from the staged file before anything
	// is published, so a resize failure leaves no half-recorded
	// attachment behind.
	if imaging.Eligible(info.Type) {
		icon, err := s.resizer.CreateIcon(path)
		if err != nil {
			return nil, fmt.Errorf("create icon: %w", err)
		}
		preview, err := s.resizer.CreatePreview(path)
		if err != nil {
			return nil, fmt.Errorf("create preview: %w", err)
		}

		iconURL, err := s.publish(ctx, icon.Path, info.Type)
		if err != nil {
			return nil, err
		}
		previewURL, err := s.publish(ctx, preview.Path, info.Type)
		if err != nil {
			return nil, err
		}

		urls[domain.AttachmentURLIcon] = iconURL
		urls[domain.AttachmentURLPreview] = previewURL
		metadata[domain.AttachmentURLIcon] = domain.ImageMeta(icon.Meta)
		metadata[domain.AttachmentURLPreview] = domain.ImageMeta(preview.Meta)
	}

	originalURL, err := s.publish(ctx, path, info.Type)
	if err != nil {
		return nil, err
	}
	urls[domain.AttachmentURLOriginal] = originalURL

	if len(metadata) == 0 {
		metadata = nil
	}

	id, err := s.messageRepo.Create(ctx, &domain.Message{
		AuthorID: author,
		Content:  "",
		Attachment: &domain.Attachment{
			Type:     info.Type,
			Name:     info.Name,
			Size:     info.Size,
			URLs:     urls,
			Metadata: metadata,
		},
	})
	if err != nil {
		return nil, err
	}

	return s.messageRepo.GetFullByID(ctx, id)
}

// publish moves one staged artifact into the file store, records it,
// and returns its serving URL.
func (s *attachmentService) publish(ctx context.Context, path, contentType string) (string, error) {
	key := filepath.Base(path)
	if err := s.fileStore.Publish(ctx, key, path, contentType); err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}

	id, err := s.fileRepo.Create(ctx, &domain.SavedFile{
		Key:         key,
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("record %s: %w", key, err)
	}

	return "/files/" + id.Hex(), nil
}
