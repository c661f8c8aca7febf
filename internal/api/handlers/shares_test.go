package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/photoshare/internal/auth"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/pipeline"
	"github.com/your-org/photoshare/internal/recognition"
	"github.com/your-org/photoshare/pkg/dto"
)

type stubRecognizer struct {
	faces    []recognition.Face
	username string
}

func (s *stubRecognizer) Ping(ctx context.Context) error { return nil }

func (s *stubRecognizer) DetectFaces(ctx context.Context, image []byte, filename string) ([]recognition.Face, error) {
	return s.faces, nil
}

func (s *stubRecognizer) MatchBatch(ctx context.Context, signatures [][]float32, corpus []models.CorpusEntry) ([]*recognition.Match, error) {
	matches := make([]*recognition.Match, len(signatures))
	for i := range signatures {
		if s.username != "" {
			matches[i] = &recognition.Match{Username: s.username, Confidence: 0.9}
		}
	}
	return matches, nil
}

type stubCorpus struct{ entries []models.CorpusEntry }

func (s *stubCorpus) ListCorpus(ctx context.Context) ([]models.CorpusEntry, error) {
	return s.entries, nil
}

type stubShareStore struct{ shares []*models.SharedPhoto }

func (s *stubShareStore) CreateShare(ctx context.Context, shared *models.SharedPhoto) error {
	s.shares = append(s.shares, shared)
	return nil
}

func (s *stubShareStore) MarkViewed(ctx context.Context, photoID, viewerID uuid.UUID) error {
	return nil
}

type stubBlobStore struct{ objects map[string][]byte }

func (s *stubBlobStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return nil
}

func (s *stubBlobStore) DeleteObjects(ctx context.Context, keys []string) error {
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

func shareRequest(t *testing.T, senderID uuid.UUID) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "party.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("photo-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/shares", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", senderID.String())
	return req
}

func shareRouter(sharer *pipeline.Sharer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewShareHandler(nil, nil, sharer)
	r := gin.New()
	r.Use(auth.RequireUser())
	r.POST("/v1/shares", h.Create)
	return r
}

func TestShareCreateReturnsRecipients(t *testing.T) {
	alice := models.CorpusEntry{UserID: uuid.New(), Username: "alice", Signature: []float32{1}}
	rec := &stubRecognizer{
		faces:    []recognition.Face{{Signature: []float32{1}}},
		username: "alice",
	}
	sharer := pipeline.NewSharer(rec, &stubCorpus{entries: []models.CorpusEntry{alice}},
		&stubShareStore{}, &stubBlobStore{}, nil)

	w := httptest.NewRecorder()
	shareRouter(sharer).ServeHTTP(w, shareRequest(t, uuid.New()))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.ShareOutcomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Delivered)
	require.NotNil(t, resp.Photo)
	require.Len(t, resp.Recipients, 1)
	assert.Equal(t, alice.UserID, resp.Recipients[0].UserID)
	assert.Equal(t, "alice", resp.Recipients[0].Username)
}

func TestShareCreateNoRecipients(t *testing.T) {
	rec := &stubRecognizer{} // nothing detected
	sharer := pipeline.NewSharer(rec, &stubCorpus{}, &stubShareStore{}, &stubBlobStore{}, nil)

	w := httptest.NewRecorder()
	shareRouter(sharer).ServeHTTP(w, shareRequest(t, uuid.New()))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.ShareOutcomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.False(t, resp.Delivered)
	assert.Nil(t, resp.Photo)
	assert.Empty(t, resp.Recipients)
}
