package recognition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/photoshare/internal/config"
	"github.com/your-org/photoshare/internal/models"
)

func testClient(url string) *Client {
	return NewClient(config.RecognitionConfig{
		BaseURL:        url,
		MatchThreshold: 0.35,
		Timeout:        5 * time.Second,
	})
}

func TestClientPing(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		require.NoError(t, testClient(srv.URL).Ping(context.Background()))
	})

	t.Run("unreachable service maps to ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		err := testClient(srv.URL).Ping(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("non-200 maps to ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := testClient(srv.URL).Ping(context.Background())
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestClientDetectFaces(t *testing.T) {
	t.Run("decodes detections", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/detect-faces", r.URL.Path)
			_, _, err := r.FormFile("file")
			assert.NoError(t, err)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":     true,
				"total_faces": 2,
				"faces": []map[string]interface{}{
					{
						"embedding":   []float32{0.1, 0.2},
						"facial_area": map[string]int{"x": 5, "y": 6, "w": 40, "h": 44},
					},
					{
						"embedding":   []float32{0.3, 0.4},
						"facial_area": map[string]int{"x": 80, "y": 10, "w": 38, "h": 41},
					},
				},
			})
		}))
		defer srv.Close()

		faces, err := testClient(srv.URL).DetectFaces(context.Background(), []byte("img"), "a.jpg")
		require.NoError(t, err)
		require.Len(t, faces, 2)
		assert.Equal(t, []float32{0.1, 0.2}, faces[0].Signature)
		assert.Equal(t, models.Region{X: 5, Y: 6, W: 40, H: 44}, faces[0].Region)
	})

	t.Run("zero faces is success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "total_faces": 0, "faces": []interface{}{}})
		}))
		defer srv.Close()

		faces, err := testClient(srv.URL).DetectFaces(context.Background(), []byte("img"), "a.jpg")
		require.NoError(t, err)
		assert.Empty(t, faces)
	})

	t.Run("remote failure flag is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).DetectFaces(context.Background(), []byte("img"), "a.jpg")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	})
}

func TestClientExtractProfile(t *testing.T) {
	t.Run("returns signature", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/extract-profile", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":   true,
				"embedding": []float32{1, 2, 3},
			})
		}))
		defer srv.Close()

		sig, err := testClient(srv.URL).ExtractProfile(context.Background(), []byte("img"), "me.jpg")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, sig)
	})

	t.Run("no face returns nil without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
		}))
		defer srv.Close()

		sig, err := testClient(srv.URL).ExtractProfile(context.Background(), []byte("img"), "me.jpg")
		require.NoError(t, err)
		assert.Nil(t, sig)
	})
}

func TestClientMatchBatch(t *testing.T) {
	corpus := []models.CorpusEntry{
		{UserID: uuid.New(), Username: "alice", Signature: []float32{0.5, 0.5}},
		{UserID: uuid.New(), Username: "bob", Signature: []float32{0.9, 0.1}},
	}

	t.Run("sends corpus and threshold, aligns results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/batch-match", r.URL.Path)

			var req matchBatchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.FaceEmbeddings, 2)
			assert.Equal(t, 0.35, req.Threshold)
			assert.Contains(t, req.ProfileEmbeddings, "alice")
			assert.Contains(t, req.ProfileEmbeddings, "bob")

			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"matches": []map[string]interface{}{
					{"matched_profile": "bob", "confidence": 0.81},
					{"matched_profile": "", "confidence": 0.0},
				},
			})
		}))
		defer srv.Close()

		matches, err := testClient(srv.URL).MatchBatch(context.Background(),
			[][]float32{{0.9, 0.1}, {0.0, 1.0}}, corpus)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		require.NotNil(t, matches[0])
		assert.Equal(t, "bob", matches[0].Username)
		assert.Equal(t, 0.81, matches[0].Confidence)
		assert.Nil(t, matches[1])
	})

	t.Run("empty input skips the round-trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected for empty input")
		}))
		defer srv.Close()

		matches, err := testClient(srv.URL).MatchBatch(context.Background(), nil, corpus)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("result count mismatch is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"matches": []map[string]interface{}{{"matched_profile": "alice", "confidence": 0.5}},
			})
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).MatchBatch(context.Background(),
			[][]float32{{1}, {2}}, corpus)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got 1 results for 2 signatures")
	})
}
