// Package upload tracks in-flight chunked file transfers from the
// "start upload" event until completion, idle timeout, or write
// failure.
package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownUpload is returned when a chunk references an upload
	// ID that is not (or no longer) active.
	ErrUnknownUpload = errors.New("unknown upload id")
)

// ValidationError rejects a malformed declaration or chunk before any
// bytes are written.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// FileInfo is the client-declared description of the file. The type is
// asserted by the client and not verified against the bytes.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Config bounds the upload protocol.
type Config struct {
	Dir         string
	MaxFileSize int64
	MaxPartSize int64
	IdleTimeout time.Duration
}

// Upload is one in-flight transfer. It is created by Start, mutated
// only through Write, and leaves the tracker exactly once: complete,
// timed out, cancelled, or failed.
type Upload struct {
	ID     string
	Info   FileInfo
	Path   string
	Owner  string // session ID that started the transfer
	TempID any    // client correlation token, echoed verbatim

	mu         sync.Mutex // serializes chunk writes per upload
	file       *os.File
	written    int64
	timer      *time.Timer
	terminated bool
}

// Written returns the total bytes flushed so far.
func (u *Upload) Written() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.written
}

// Tracker owns the registry of active uploads.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	uploads map[string]*Upload
}

// NewTracker creates a Tracker writing into cfg.Dir, creating the
// directory if needed.
func NewTracker(cfg Config, logger *slog.Logger) (*Tracker, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Tracker{
		cfg:     cfg,
		logger:  logger,
		uploads: make(map[string]*Upload),
	}, nil
}

// Start validates the declared file info, allocates the destination
// path and opens it, and begins the idle countdown. onTimeout runs on
// the timer goroutine after the upload has been deregistered and its
// partial file removed.
func (t *Tracker) Start(owner string, tempID any, info FileInfo, onTimeout func(*Upload)) (*Upload, error) {
	if err := validateInfo(info, t.cfg.MaxFileSize); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path := filepath.Join(t.cfg.Dir, id+safeExt(info.Name))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload target: %w", err)
	}

	up := &Upload{
		ID:     id,
		Info:   info,
		Path:   path,
		Owner:  owner,
		TempID: tempID,
		file:   file,
	}
	t.mu.Lock()
	t.uploads[id] = up
	t.mu.Unlock()

	// Registered before the countdown is armed so an immediate firing
	// deregisters a present entry instead of racing the insert.
	up.mu.Lock()
	up.timer = time.AfterFunc(t.cfg.IdleTimeout, func() {
		t.timeout(up, onTimeout)
	})
	up.mu.Unlock()

	return up, nil
}

// Write appends one chunk. The idle countdown restarts on every chunk:
// the timeout measures inter-chunk idle time, not total transfer time.
// done is true once written bytes reach the declared size; the upload
// is then closed and deregistered but its file is kept for the
// completion pipeline. A write failure is terminal: the upload is
// cleaned up and the error returned.
func (t *Tracker) Write(id string, data []byte) (up *Upload, written int64, done bool, err error) {
	if int64(len(data)) > t.cfg.MaxPartSize {
		return nil, 0, false, &ValidationError{Reason: "file part exceeds maximum size"}
	}
	if len(data) == 0 {
		return nil, 0, false, &ValidationError{Reason: "file part data is required"}
	}

	t.mu.Lock()
	up, ok := t.uploads[id]
	t.mu.Unlock()
	if !ok {
		return nil, 0, false, ErrUnknownUpload
	}

	up.mu.Lock()
	defer up.mu.Unlock()

	if up.terminated {
		return nil, 0, false, ErrUnknownUpload
	}

	up.timer.Reset(t.cfg.IdleTimeout)

	n, err := up.file.Write(data)
	up.written += int64(n)

	if err != nil {
		t.terminateLocked(up)
		t.removePartial(up)
		return up, up.written, false, fmt.Errorf("write upload chunk: %w", err)
	}

	if up.written >= up.Info.Size {
		t.terminateLocked(up)
		return up, up.written, true, nil
	}

	return up, up.written, false, nil
}

// Cancel terminates an in-flight upload, removing its partial file.
// Cancelling an unknown or already-finished upload is a no-op.
func (t *Tracker) Cancel(id string) {
	t.mu.Lock()
	up, ok := t.uploads[id]
	t.mu.Unlock()
	if !ok {
		return
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	if up.terminated {
		return
	}
	t.terminateLocked(up)
	t.removePartial(up)
}

// CancelOwnedBy cancels every active upload started by the given
// session. Called on disconnect so orphaned transfers do not leak.
func (t *Tracker) CancelOwnedBy(owner string) {
	t.mu.Lock()
	var owned []*Upload
	for _, up := range t.uploads {
		if up.Owner == owner {
			owned = append(owned, up)
		}
	}
	t.mu.Unlock()

	for _, up := range owned {
		t.Cancel(up.ID)
	}
}

// Active reports whether an upload ID is still registered.
func (t *Tracker) Active(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.uploads[id]
	return ok
}

// timeout runs on the timer goroutine. A chunk racing the timer wins
// if it marks the upload terminated first.
func (t *Tracker) timeout(up *Upload, onTimeout func(*Upload)) {
	up.mu.Lock()
	if up.terminated {
		up.mu.Unlock()
		return
	}
	t.terminateLocked(up)
	t.removePartial(up)
	up.mu.Unlock()

	t.logger.Info("upload timed out", "upload_id", up.ID, "written", up.written)

	if onTimeout != nil {
		onTimeout(up)
	}
}

// terminateLocked stops the countdown, closes the write target and
// deregisters the upload. Caller holds up.mu.
func (t *Tracker) terminateLocked(up *Upload) {
	up.terminated = true
	up.timer.Stop()
	if err := up.file.Close(); err != nil {
		t.logger.Warn("closing upload target failed", "upload_id", up.ID, "error", err)
	}

	t.mu.Lock()
	delete(t.uploads, up.ID)
	t.mu.Unlock()
}

// removePartial best-effort-deletes the partially written file.
func (t *Tracker) removePartial(up *Upload) {
	if err := os.Remove(up.Path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("removing partial upload failed", "upload_id", up.ID, "error", err)
	}
}

func validateInfo(info FileInfo, maxSize int64) error {
	switch {
	case info.Name == "":
		return &ValidationError{Reason: "file name is required"}
	case len(info.Name) > 255:
		return &ValidationError{Reason: "file name exceeds 255 characters"}
	case info.Size < 1:
		return &ValidationError{Reason: "file size must be at least 1 byte"}
	case info.Size > maxSize:
		return &ValidationError{Reason: "file size exceeds maximum"}
	case len(info.Type) > 255:
		return &ValidationError{Reason: "file type exceeds 255 characters"}
	}
	return nil
}

// safeExt extracts the extension from a client-supplied name, dropping
// any path components.
func safeExt(name string) string {
	return filepath.Ext(filepath.Base(name))
}
