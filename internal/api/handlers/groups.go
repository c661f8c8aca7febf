package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/auth"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/pipeline"
	"github.com/your-org/photoshare/internal/recognition"
	"github.com/your-org/photoshare/internal/storage"
	"github.com/your-org/photoshare/pkg/dto"
)

type GroupHandler struct {
	db       *storage.PostgresStore
	ingestor *pipeline.Ingestor
}

func NewGroupHandler(db *storage.PostgresStore, ingestor *pipeline.Ingestor) *GroupHandler {
	return &GroupHandler{db: db, ingestor: ingestor}
}

// UploadBatch runs the full ingestion pipeline for a multipart batch of
// photos. Form fields: "name" (group name), "photos" (one or more files),
// "captured_at" (optional RFC 3339 timestamps, one per file in order).
func (h *GroupHandler) UploadBatch(c *gin.Context) {
	uploaderID := auth.UserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	name := c.PostForm("name")
	files := form.File["photos"]
	capturedAt := form.Value["captured_at"]

	uploads := make([]pipeline.Upload, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "open uploaded file: " + err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read uploaded file: " + err.Error()})
			return
		}

		up := pipeline.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}
		if i < len(capturedAt) && capturedAt[i] != "" {
			t, err := time.Parse(time.RFC3339, capturedAt[i])
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid captured_at timestamp"})
				return
			}
			up.CapturedAt = t
		}
		uploads = append(uploads, up)
	}

	result, err := h.ingestor.IngestBatch(c.Request.Context(), name, uploaderID, uploads)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrEmptyBatch),
			errors.Is(err, pipeline.ErrBatchTooLarge),
			errors.Is(err, pipeline.ErrNoInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, recognition.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	photos := make([]dto.PhotoResponse, 0, len(result.Photos))
	faces := 0
	for _, p := range result.Photos {
		photos = append(photos, toPhotoResponse(p))
		faces += len(p.Faces)
	}

	c.JSON(http.StatusCreated, dto.BatchResponse{
		Group:             toGroupResponse(result.Group),
		Photos:            photos,
		FacesDetected:     faces,
		DuplicatesSkipped: result.DuplicatesSkipped,
	})
}

func (h *GroupHandler) List(c *gin.Context) {
	userID := auth.UserID(c)

	groups, err := h.db.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		resp = append(resp, toGroupResponse(&groups[i]))
	}

	c.JSON(http.StatusOK, gin.H{"groups": resp, "total": len(resp)})
}

func (h *GroupHandler) Get(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

func (h *GroupHandler) AddMembers(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}

	var req dto.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, uid := range req.UserIDs {
		user, err := h.db.GetUser(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found: " + uid.String()})
			return
		}
	}

	if err := h.db.AddMembers(c.Request.Context(), group.ID, req.UserIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.db.GetGroup(c.Request.Context(), group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(updated))
}

func (h *GroupHandler) ListPhotos(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}

	photos, err := h.db.ListGroupPhotos(c.Request.Context(), group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		resp = append(resp, toPhotoResponse(&photos[i]))
	}

	c.JSON(http.StatusOK, gin.H{"photos": resp, "total": len(resp)})
}

// memberGroup loads the group from the :id param and checks the acting user
// is a member. Writes the error response itself when not.
func (h *GroupHandler) memberGroup(c *gin.Context) (*models.Group, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return nil, false
	}

	group, err := h.db.GetGroup(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return nil, false
	}

	member, err := h.db.IsGroupMember(c.Request.Context(), group.ID, auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return nil, false
	}
	return group, true
}
