package api

import (
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/storage"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileHandler serves published upload artifacts by saved-file record ID.
type FileHandler struct {
	fileRepo  repository.FileRepository
	fileStore storage.FileStore
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileRepo repository.FileRepository, fileStore storage.FileStore) *FileHandler {
	return &FileHandler{fileRepo: fileRepo, fileStore: fileStore}
}

// Get handles GET /files/:id. ?action=download&name= forces an
// attachment disposition under the given name. Stores with direct URLs
// (S3 presigned) redirect; the local store streams the file.
func (h *FileHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}

	file, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading file failed"})
		return
	}

	download := c.Query("action") == "download"

	if !download {
		if url, err := h.fileStore.DownloadURL(c.Request.Context(), file.Key, 0); err == nil {
			c.Redirect(http.StatusTemporaryRedirect, url)
			return
		} else if !errors.Is(err, storage.ErrNoDirectURL) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resolving file failed"})
			return
		}
	}

	content, err := h.fileStore.Open(c.Request.Context(), file.Key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}
	defer content.Close()

	if file.ContentType != "" {
		c.Header("Content-Type", file.ContentType)
	}
	if download {
		name := c.Query("name")
		if name == "" {
			name = file.Key
		}
		c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	}

	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, content)
}
