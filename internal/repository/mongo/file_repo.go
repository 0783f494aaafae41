package mongo

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const fileCollectionName = "files"

// mongoFileRepository implements repository.FileRepository using MongoDB.
type mongoFileRepository struct {
	collection *mongo.Collection
}

// NewMongoFileRepository creates a new instance of mongoFileRepository.
func NewMongoFileRepository(db *mongo.Database) repository.FileRepository {
	return &mongoFileRepository{
		collection: db.Collection(fileCollectionName),
	}
}

// Create inserts a saved-file record.
func (r *mongoFileRepository) Create(ctx context.Context, file *domain.SavedFile) (primitive.ObjectID, error) {
	if file.Key == "" {
		return primitive.NilObjectID, errors.New("saved file key is required")
	}

	file.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a saved-file record by its ObjectID.
func (r *mongoFileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SavedFile, error) {
	var file domain.SavedFile

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}
