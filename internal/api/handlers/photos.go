package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/auth"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/pipeline"
	"github.com/your-org/photoshare/internal/storage"
)

type PhotoHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewPhotoHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *PhotoHandler {
	return &PhotoHandler{db: db, minio: minio}
}

// Image serves photo bytes for one of the stored variants. The size query
// parameter picks small, medium or full; anything else falls back to medium.
func (h *PhotoHandler) Image(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo id"})
		return
	}

	photo, err := h.db.GetPhoto(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}

	member, err := h.db.IsGroupMember(c.Request.Context(), photo.GroupID, auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return
	}

	size := models.NormalizeVariant(c.Query("size"))
	data, err := h.minio.GetObject(c.Request.Context(), pipeline.PhotoVariantKey(photo.ID, size))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := photo.ContentType
	if size != models.VariantFull {
		// Scaled variants are re-encoded as JPEG regardless of source format.
		contentType = "image/jpeg"
	}
	writeImage(c, contentType, data)
}
