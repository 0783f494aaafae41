package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment URL map keys. "originalFile" is always present; "icon"
// and "preview" only for uploads that produced image derivatives.
const (
	AttachmentURLOriginal = "originalFile"
	AttachmentURLIcon     = "icon"
	AttachmentURLPreview  = "preview"
)

// ImageMeta describes one generated derivative (or the original image).
type ImageMeta struct {
	Width  int   `bson:"width" json:"width"`
	Height int   `bson:"height" json:"height"`
	Size   int64 `bson:"size" json:"size"`
}

// Attachment is the file attached to a message. URLs maps the named
// artifacts to their download locations; Metadata carries dimensions
// only for artifacts that produced them.
type Attachment struct {
	Type     string               `bson:"type" json:"type"`
	Name     string               `bson:"name" json:"name"`
	Size     int64                `bson:"size" json:"size"`
	URLs     map[string]string    `bson:"urls" json:"urls"`
	Metadata map[string]ImageMeta `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Author is the hydrated author view embedded in a loaded message.
type Author struct {
	Username string `bson:"username" json:"username"`
}

// Message is a persisted chat message. Attachment is set only for
// messages created from a completed file upload (their content is
// empty). Author is populated on load, not stored.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date       time.Time          `bson:"date" json:"date"`
	Content    string             `bson:"content" json:"content"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"-"`
	Author     *Author            `bson:"author,omitempty" json:"author,omitempty"`
	Attachment *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
}
