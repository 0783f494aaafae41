package chat

import (
	"encoding/json"

	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/upload"
)

// Inbound event names.
const (
	EventMessage         = "message"
	EventTypingStarted   = "typing started"
	EventTypingFinished  = "typing finished"
	EventStartFileUpload = "start file upload"
	EventUploadFilePart  = "upload file part"
)

// Outbound event names.
const (
	EventUsers              = "users"
	EventUsersError         = "users error"
	EventMessageSaved       = "message saved"
	EventMessageValidation  = "message validation error"
	EventSendingError       = "sending error"
	EventExpiredToken       = "expired token"
	EventUploadStarted      = "file upload started"
	EventFilePartUploaded   = "file part uploaded"
	EventFileUploaded       = "file uploaded"
	EventUploadTimeout      = "file upload timeout"
	EventUploadingError     = "uploading file error"
	EventFileInfoValidation = "file info validation error"
)

// Envelope frames every realtime message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- Inbound payloads ---

// TempID fields carry the client correlation token (string or number),
// echoed back verbatim so optimistic UI updates can be reconciled.
// Message events spell the key "tempID", upload events "tempId"; the
// wire casing differs per event family.

type messagePayload struct {
	Content string `json:"content"`
	TempID  any    `json:"tempID,omitempty"`
}

type startUploadPayload struct {
	TempID   any             `json:"tempId,omitempty"`
	FileInfo upload.FileInfo `json:"fileInfo"`
}

type uploadPartPayload struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// --- Outbound payloads ---

type typingPayload struct {
	Username string `json:"username"`
}

type messageSavedPayload struct {
	TempID  any             `json:"tempID,omitempty"`
	Message *domain.Message `json:"message"`
}

type validationErrorPayload struct {
	TempID  any    `json:"tempID,omitempty"`
	Message string `json:"message"`
}

type uploadValidationErrorPayload struct {
	TempID  any    `json:"tempId,omitempty"`
	Message string `json:"message"`
}

type uploadStartedPayload struct {
	TempID any    `json:"tempId,omitempty"`
	ID     string `json:"id"`
}

type partUploadedPayload struct {
	ID            string `json:"id"`
	UploadedBytes int64  `json:"uploadedBytes"`
}

type fileUploadedPayload struct {
	ID      string          `json:"id"`
	Message *domain.Message `json:"message"`
}

type uploadTimeoutPayload struct {
	TempID any `json:"tempId,omitempty"`
}

type uploadErrorPayload struct {
	ID      string `json:"id,omitempty"`
	TempID  any    `json:"tempId,omitempty"`
	Message string `json:"message,omitempty"`
}

// newEnvelope frames a payload. Marshalling only fails for types the
// protocol never uses, so failures reduce to an event with no data.
func newEnvelope(event string, payload any) Envelope {
	if payload == nil {
		return Envelope{Event: event}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: data}
}
