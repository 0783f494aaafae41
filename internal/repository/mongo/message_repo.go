package mongo

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollectionName = "messages"

// mongoMessageRepository implements repository.MessageRepository using MongoDB.
type mongoMessageRepository struct {
	collection *mongo.Collection
	users      *mongo.Collection
}

// NewMongoMessageRepository creates a new instance of mongoMessageRepository.
func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
		users:      db.Collection(userCollectionName),
	}
}

// Create inserts a new message. The hydrated Author view is never stored.
func (r *mongoMessageRepository) Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error) {
	if message.AuthorID.IsZero() {
		return primitive.NilObjectID, errors.New("message author is required")
	}

	message.ID = primitive.NewObjectID()
	if message.Date.IsZero() {
		message.Date = time.Now().UTC()
	}
	message.Author = nil

	result, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetFullByID loads one message and hydrates its author username.
func (r *mongoMessageRepository) GetFullByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	var message domain.Message

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.hydrateAuthors(ctx, []*domain.Message{&message}); err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByTimeAsc selects the newest window (id descending with
// skip/limit/before applied) and returns it oldest first.
func (r *mongoMessageRepository) ListByTimeAsc(ctx context.Context, listOpts repository.MessageListOptions) ([]domain.Message, error) {
	filter := bson.M{}
	if listOpts.Before != nil {
		filter["_id"] = bson.M{"$lt": *listOpts.Before}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if listOpts.Skip != nil {
		findOpts.SetSkip(*listOpts.Skip)
	}
	if listOpts.Limit != nil {
		findOpts.SetLimit(*listOpts.Limit)
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Reverse into ascending order for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	refs := make([]*domain.Message, len(messages))
	for i := range messages {
		refs[i] = &messages[i]
	}
	if err := r.hydrateAuthors(ctx, refs); err != nil {
		return nil, err
	}
	return messages, nil
}

// hydrateAuthors resolves author usernames for the given messages with
// a single users query.
func (r *mongoMessageRepository) hydrateAuthors(ctx context.Context, messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	idSet := make(map[primitive.ObjectID]struct{}, len(messages))
	ids := make([]primitive.ObjectID, 0, len(messages))
	for _, m := range messages {
		if _, seen := idSet[m.AuthorID]; !seen {
			idSet[m.AuthorID] = struct{}{}
			ids = append(ids, m.AuthorID)
		}
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}

	for _, m := range messages {
		if username, ok := byID[m.AuthorID]; ok {
			m.Author = &domain.Author{Username: username}
		}
	}
	return nil
}

// EnsureMessageIndexes creates the author lookup index.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "authorId", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("ERROR: Failed to create message author index: %v", err)
	}
}
