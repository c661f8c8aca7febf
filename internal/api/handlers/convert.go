package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/pkg/dto"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// writeImage serves image bytes with a long-lived cache policy. Stored
// photos are immutable, so clients may cache them for a year.
func writeImage(c *gin.Context, contentType string, data []byte) {
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Data(http.StatusOK, contentType, data)
}

func toFaceDTOs(faces []models.FaceMatch) []dto.FaceMatchDTO {
	out := make([]dto.FaceMatchDTO, 0, len(faces))
	for _, f := range faces {
		out = append(out, dto.FaceMatchDTO{
			UserID:     f.UserID,
			Username:   f.Username,
			Confidence: f.Confidence,
			Region: dto.RegionDTO{
				X: f.Region.X,
				Y: f.Region.Y,
				W: f.Region.W,
				H: f.Region.H,
			},
		})
	}
	return out
}

func toPhotoResponse(p *models.Photo) dto.PhotoResponse {
	return dto.PhotoResponse{
		ID:         p.ID,
		GroupID:    p.GroupID,
		UploaderID: p.UploaderID,
		Faces:      toFaceDTOs(p.Faces),
		CapturedAt: formatTime(p.CapturedAt),
		UploadedAt: formatTime(p.UploadedAt),
	}
}

func toGroupResponse(g *models.Group) dto.GroupResponse {
	members := g.MemberIDs
	if members == nil {
		members = []uuid.UUID{}
	}
	return dto.GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatorID: g.CreatorID,
		MemberIDs: members,
		CreatedAt: formatTime(g.CreatedAt),
	}
}

func toShareResponse(sp *models.SharedPhoto) dto.ShareResponse {
	views := make([]dto.ViewDTO, 0, len(sp.Views))
	for _, v := range sp.Views {
		views = append(views, dto.ViewDTO{
			UserID:   v.UserID,
			ViewedAt: formatTime(v.ViewedAt),
		})
	}
	recipients := sp.RecipientIDs
	if recipients == nil {
		recipients = []uuid.UUID{}
	}
	return dto.ShareResponse{
		ID:           sp.ID,
		SenderID:     sp.SenderID,
		RecipientIDs: recipients,
		Faces:        toFaceDTOs(sp.Faces),
		Views:        views,
		SharedAt:     formatTime(sp.SharedAt),
	}
}
