package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/auth"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/pipeline"
	"github.com/your-org/photoshare/internal/recognition"
	"github.com/your-org/photoshare/internal/storage"
	"github.com/your-org/photoshare/pkg/dto"
)

type ShareHandler struct {
	db     *storage.PostgresStore
	minio  *storage.MinIOStore
	sharer *pipeline.Sharer
}

func NewShareHandler(db *storage.PostgresStore, minio *storage.MinIOStore, sharer *pipeline.Sharer) *ShareHandler {
	return &ShareHandler{db: db, minio: minio, sharer: sharer}
}

// Create runs the instant-share pipeline on a single uploaded photo. The
// recipient set is derived entirely from the faces recognized in the image.
func (h *ShareHandler) Create(c *gin.Context) {
	senderID := auth.UserID(c)

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
		return
	}

	outcome, err := h.sharer.ShareOne(c.Request.Context(), senderID, pipeline.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, recognition.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	resp := dto.ShareOutcomeResponse{
		Delivered:  outcome.Photo != nil,
		Recipients: make([]dto.RecipientDTO, 0, len(outcome.Recipients)),
	}
	for _, r := range outcome.Recipients {
		resp.Recipients = append(resp.Recipients, dto.RecipientDTO{
			UserID:   r.UserID,
			Username: r.Username,
		})
	}
	if outcome.Photo != nil {
		share := toShareResponse(outcome.Photo)
		resp.Photo = &share
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShareHandler) ListReceived(c *gin.Context) {
	shares, err := h.db.ListSharesReceived(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.writeShareList(c, shares)
}

func (h *ShareHandler) ListSent(c *gin.Context) {
	shares, err := h.db.ListSharesSent(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.writeShareList(c, shares)
}

func (h *ShareHandler) writeShareList(c *gin.Context, shares []models.SharedPhoto) {
	resp := make([]dto.ShareResponse, 0, len(shares))
	for i := range shares {
		resp = append(resp, toShareResponse(&shares[i]))
	}
	c.JSON(http.StatusOK, gin.H{"shares": resp, "total": len(resp)})
}

// Image serves the shared photo bytes to its sender or a recipient.
func (h *ShareHandler) Image(c *gin.Context) {
	share, ok := h.visibleShare(c)
	if !ok {
		return
	}

	data, err := h.minio.GetObject(c.Request.Context(), pipeline.ShareObjectKey(share.ID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	writeImage(c, share.ContentType, data)
}

// MarkViewed records that the acting user saw the shared photo. Repeat calls
// and calls by non-recipients change nothing.
func (h *ShareHandler) MarkViewed(c *gin.Context) {
	share, ok := h.visibleShare(c)
	if !ok {
		return
	}

	if err := h.sharer.MarkViewed(c.Request.Context(), share.ID, auth.UserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.db.GetShare(c.Request.Context(), share.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toShareResponse(updated))
}

// visibleShare loads the share from the :id param and checks the acting user
// is its sender or one of its recipients.
func (h *ShareHandler) visibleShare(c *gin.Context) (*models.SharedPhoto, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid share id"})
		return nil, false
	}

	share, err := h.db.GetShare(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if share == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "share not found"})
		return nil, false
	}

	userID := auth.UserID(c)
	visible := share.SenderID == userID
	for _, rid := range share.RecipientIDs {
		if rid == userID {
			visible = true
			break
		}
	}
	if !visible {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this share"})
		return nil, false
	}
	return share, true
}
