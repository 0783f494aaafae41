package api

import (
	"alcyxob/chat-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler handles registration and username availability checks.
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type registrationRequest struct {
	Username string `json:"username" binding:"required,min=1,max=30"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Register handles POST /api/users.
func (h *UserHandler) Register(c *gin.Context) {
	var req registrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration data"})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "username is already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Availability handles GET /api/users/availability?username=.
func (h *UserHandler) Availability(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter is required"})
		return
	}

	available, err := h.authService.IsUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": username, "available": available})
}
