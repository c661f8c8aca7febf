package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/recognition"
	"github.com/your-org/photoshare/internal/storage"
	"github.com/your-org/photoshare/pkg/dto"
)

type UserHandler struct {
	db  *storage.PostgresStore
	rec *recognition.Client
}

func NewUserHandler(db *storage.PostgresStore, rec *recognition.Client) *UserHandler {
	return &UserHandler{db: db, rec: rec}
}

// Register creates a user from a multipart form with a reference face photo.
// The photo is used once to extract the user's face signature and is not
// stored.
func (h *UserHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	displayName := c.PostForm("display_name")
	if displayName == "" {
		displayName = username
	}

	existing, err := h.db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	signature, err := h.rec.ExtractProfile(c.Request.Context(), imageData, header.Filename)
	if err != nil {
		if errors.Is(err, recognition.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if signature == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no face found in reference photo"})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), username, displayName, signature)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   formatTime(user.CreatedAt),
	})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			CreatedAt:   formatTime(u.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": resp, "total": len(resp)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.db.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   formatTime(user.CreatedAt),
	})
}
