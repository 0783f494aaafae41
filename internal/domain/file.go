package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavedFile records one published upload artifact. Key is the object
// key inside the configured file store (for the local store this is
// the file name inside the uploads directory). Attachment URLs point
// at /files/<id>, which resolves through this record.
type SavedFile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string             `bson:"key" json:"-"`
	ContentType string             `bson:"contentType" json:"contentType"`
}
