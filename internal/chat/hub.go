// Package chat owns the realtime session lifecycle: admission of
// authenticated connections, presence tracking, token-expiry
// enforcement on every inbound event, and dispatch of chat and upload
// events.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/service"
	"alcyxob/chat-app/internal/upload"
)

// Hub is the connection session manager. It owns the registry of live
// sessions and the connected-identity multiset, and is the sole caller
// of upload tracker operations.
type Hub struct {
	users       repository.UserRepository
	messages    service.MessageService
	attachments service.AttachmentService
	tracker     *upload.Tracker
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	sessions  map[*Session]struct{}
	connected map[string]int // username -> live session count
}

// NewHub creates a Hub with empty presence state.
func NewHub(
	users repository.UserRepository,
	messages service.MessageService,
	attachments service.AttachmentService,
	tracker *upload.Tracker,
	logger *slog.Logger,
) *Hub {
	return &Hub{
		users:       users,
		messages:    messages,
		attachments: attachments,
		tracker:     tracker,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[*Session]struct{}),
		connected:   make(map[string]int),
	}
}

// Serve admits an authenticated connection and runs its read loop
// until the client disconnects or the session is evicted. The claims
// must already be verified by the handshake authorizer.
func (h *Hub) Serve(ctx context.Context, conn Conn, claims service.TokenClaims) {
	sess := &Session{
		id:        uuid.NewString(),
		identity:  Identity{ID: claims.UserID, Username: claims.Username},
		expiresAt: claims.ExpiresAt,
		conn:      conn,
	}

	h.mu.Lock()
	h.sessions[sess] = struct{}{}
	h.connected[sess.identity.Username]++
	h.mu.Unlock()

	h.logger.Info("session admitted", "session_id", sess.id, "username", sess.identity.Username)
	h.broadcastUsers(ctx)

	defer h.disconnect(ctx, sess)

	for {
		evt, err := conn.ReadEvent()
		if err != nil {
			return
		}
		h.handleEvent(ctx, sess, evt)
	}
}

// handleEvent gates every inbound event behind an eviction pass over
// all sessions, then dispatches. Events from a session that was itself
// evicted in the pass are dropped.
func (h *Hub) handleEvent(ctx context.Context, sess *Session, evt Envelope) {
	h.evictExpiredSessions(ctx)

	if !h.registered(sess) {
		return
	}

	switch evt.Event {
	case EventMessage:
		h.handleMessage(ctx, sess, evt.Data)
	case EventTypingStarted, EventTypingFinished:
		h.broadcastExcept(sess, newEnvelope(evt.Event, typingPayload{Username: sess.identity.Username}))
	case EventStartFileUpload:
		h.handleStartUpload(ctx, sess, evt.Data)
	case EventUploadFilePart:
		h.handleUploadPart(ctx, sess, evt.Data)
	default:
		h.logger.Debug("unknown event dropped", "event", evt.Event, "session_id", sess.id)
	}
}

// evictExpiredSessions scans all registered sessions and force-closes
// every one whose token has expired. Each evicted session gets a
// session-scoped notification first. One presence rebroadcast covers
// the whole pass.
func (h *Hub) evictExpiredSessions(ctx context.Context) {
	now := h.now()

	h.mu.Lock()
	var expired []*Session
	for sess := range h.sessions {
		if sess.Expired(now) {
			expired = append(expired, sess)
			delete(h.sessions, sess)
			h.dropConnectedLocked(sess.identity.Username)
		}
	}
	h.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	for _, sess := range expired {
		h.logger.Info("session evicted, token expired", "session_id", sess.id, "username", sess.identity.Username)
		if err := sess.Send(Envelope{Event: EventExpiredToken}); err != nil {
			h.logger.Debug("expired-token notify failed", "session_id", sess.id, "error", err)
		}
		sess.Close()
		h.tracker.CancelOwnedBy(sess.id)
	}

	h.broadcastUsers(ctx)
}

// disconnect tears a session down on the read-loop exit path. Sessions
// already evicted are gone from the registry and cause no second
// presence broadcast.
func (h *Hub) disconnect(ctx context.Context, sess *Session) {
	h.mu.Lock()
	_, present := h.sessions[sess]
	if present {
		delete(h.sessions, sess)
		h.dropConnectedLocked(sess.identity.Username)
	}
	h.mu.Unlock()

	sess.Close()
	h.tracker.CancelOwnedBy(sess.id)

	if present {
		h.logger.Info("session disconnected", "session_id", sess.id, "username", sess.identity.Username)
		h.broadcastUsers(ctx)
	}
}

// dropConnectedLocked decrements the multiset entry for username,
// removing it at zero. Caller holds h.mu.
func (h *Hub) dropConnectedLocked(username string) {
	if n := h.connected[username]; n <= 1 {
		delete(h.connected, username)
	} else {
		h.connected[username] = n - 1
	}
}

func (h *Hub) registered(sess *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[sess]
	return ok
}

// broadcastUsers merges the alphabetical user directory with the
// connected multiset and emits the result to every session.
func (h *Hub) broadcastUsers(ctx context.Context) {
	users, err := h.users.LoadAlphabetical(ctx)
	if err != nil {
		h.logger.Error("loading users for presence broadcast failed", "error", err)
		h.broadcast(Envelope{Event: EventUsersError})
		return
	}

	h.mu.Lock()
	list := make([]domain.UserPresence, 0, len(users))
	for _, u := range users {
		list = append(list, domain.UserPresence{
			ID:        u.ID,
			Username:  u.Username,
			Connected: h.connected[u.Username] > 0,
		})
	}
	h.mu.Unlock()

	h.broadcast(newEnvelope(EventUsers, list))
}

// handleMessage validates, persists and fans out one chat message.
func (h *Hub) handleMessage(ctx context.Context, sess *Session, data json.RawMessage) {
	var payload messagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.send(sess, newEnvelope(EventMessageValidation, validationErrorPayload{Message: "malformed message payload"}))
		return
	}

	saved, err := h.messages.Create(ctx, sess.identity.ID, payload.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrMessageTooLong) {
			h.send(sess, newEnvelope(EventMessageValidation, validationErrorPayload{
				TempID:  payload.TempID,
				Message: err.Error(),
			}))
			return
		}
		h.logger.Error("persisting message failed", "session_id", sess.id, "error", err)
		h.send(sess, newEnvelope(EventSendingError, payload.TempID))
		return
	}

	h.broadcastExcept(sess, newEnvelope(EventMessage, saved))
	h.send(sess, newEnvelope(EventMessageSaved, messageSavedPayload{
		TempID:  payload.TempID,
		Message: saved,
	}))
}

// handleStartUpload opens a tracked upload and acknowledges with its ID.
func (h *Hub) handleStartUpload(ctx context.Context, sess *Session, data json.RawMessage) {
	var payload startUploadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.send(sess, newEnvelope(EventFileInfoValidation, uploadValidationErrorPayload{Message: "malformed upload payload"}))
		return
	}

	up, err := h.tracker.Start(sess.id, payload.TempID, payload.FileInfo, func(up *upload.Upload) {
		// Timer goroutine: the upload is already deregistered and its
		// partial file removed.
		h.send(sess, newEnvelope(EventUploadTimeout, uploadTimeoutPayload{TempID: up.TempID}))
	})
	if err != nil {
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			h.send(sess, newEnvelope(EventFileInfoValidation, uploadValidationErrorPayload{
				TempID:  payload.TempID,
				Message: verr.Reason,
			}))
			return
		}
		h.logger.Error("starting upload failed", "session_id", sess.id, "error", err)
		h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{TempID: payload.TempID}))
		return
	}

	h.send(sess, newEnvelope(EventUploadStarted, uploadStartedPayload{
		TempID: payload.TempID,
		ID:     up.ID,
	}))
}

// handleUploadPart appends one chunk and, on completion, drives the
// derivative/persistence pipeline and fans out the resulting message.
func (h *Hub) handleUploadPart(ctx context.Context, sess *Session, data json.RawMessage) {
	var payload uploadPartPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{Message: "malformed file part payload"}))
		return
	}

	up, written, done, err := h.tracker.Write(payload.ID, payload.Data)
	if err != nil {
		var verr *upload.ValidationError
		switch {
		case errors.As(err, &verr):
			h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{
				ID:      payload.ID,
				Message: verr.Reason,
			}))
		case errors.Is(err, upload.ErrUnknownUpload):
			h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{
				ID:      payload.ID,
				Message: "invalid upload id",
			}))
		default:
			h.logger.Error("writing upload chunk failed", "session_id", sess.id, "upload_id", payload.ID, "error", err)
			h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{ID: payload.ID}))
		}
		return
	}

	h.send(sess, newEnvelope(EventFilePartUploaded, partUploadedPayload{
		ID:            up.ID,
		UploadedBytes: written,
	}))

	if !done {
		return
	}

	saved, err := h.attachments.CreateFromUpload(ctx, sess.identity.ID, up.Info, up.Path)
	if err != nil {
		// The upload already left the tracker; this failure is
		// terminal and not retryable through this path.
		h.logger.Error("attachment pipeline failed", "session_id", sess.id, "upload_id", up.ID, "error", err)
		h.send(sess, newEnvelope(EventUploadingError, uploadErrorPayload{ID: up.ID}))
		return
	}

	h.broadcastExcept(sess, newEnvelope(EventMessage, saved))
	h.send(sess, newEnvelope(EventFileUploaded, fileUploadedPayload{
		ID:      up.ID,
		Message: saved,
	}))
}

// --- fan-out helpers ---

func (h *Hub) snapshot() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for sess := range h.sessions {
		out = append(out, sess)
	}
	return out
}

func (h *Hub) broadcast(evt Envelope) {
	for _, sess := range h.snapshot() {
		h.send(sess, evt)
	}
}

func (h *Hub) broadcastExcept(exclude *Session, evt Envelope) {
	for _, sess := range h.snapshot() {
		if sess == exclude {
			continue
		}
		h.send(sess, evt)
	}
}

func (h *Hub) send(sess *Session, evt Envelope) {
	if err := sess.Send(evt); err != nil {
		h.logger.Debug("event delivery failed", "session_id", sess.id, "event", evt.Event, "error", err)
	}
}
