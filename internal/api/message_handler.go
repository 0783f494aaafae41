package api

import (
	"alcyxob/chat-app/internal/repository"
	"alcyxob/chat-app/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler serves the paginated message feed.
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List handles GET /api/messages?skip=&limit=&before=. The window is
// selected newest-first and returned in ascending order.
func (h *MessageHandler) List(c *gin.Context) {
	opts, err := parseListOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading messages failed"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

func parseListOptions(c *gin.Context) (repository.MessageListOptions, error) {
	var opts repository.MessageListOptions

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || skip < 0 {
			return opts, errInvalidQuery("skip")
		}
		opts.Skip = &skip
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 {
			return opts, errInvalidQuery("limit")
		}
		opts.Limit = &limit
	}

	if raw := c.Query("before"); raw != "" {
		before, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return opts, errInvalidQuery("before")
		}
		opts.Before = &before
	}

	return opts, nil
}

type queryError string

func (e queryError) Error() string {
	return "invalid " + string(e) + " query parameter"
}

func errInvalidQuery(param string) error {
	return queryError(param)
}
