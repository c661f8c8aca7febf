package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/your-org/photoshare/internal/config"
	"github.com/your-org/photoshare/internal/models"
)

// ErrUnavailable marks transport-level failures: the recognition service
// could not be reached at all. Callers treat it as a whole-call failure,
// unlike per-image remote errors which only degrade one photo.
var ErrUnavailable = errors.New("recognition service unavailable")

// Face is one detected face: its signature vector plus the bounding region
// in pixel coordinates of the source image.
type Face struct {
	Signature []float32
	Region    models.Region
}

// Match is a positive result for one input signature, naming the matched
// registered profile. Results below the configured threshold are filtered
// by the remote service and never surface here.
type Match struct {
	Username   string
	Confidence float64
}

// Client is the typed boundary to the remote recognition capability.
// It performs no matching logic itself; see ResolveMatches for the
// per-photo association rules.
type Client struct {
	baseURL   string
	threshold float64
	http      *http.Client
}

func NewClient(cfg config.RecognitionConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		threshold: cfg.MatchThreshold,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Ping probes service connectivity. Used by the pipeline to fail a whole
// batch up front instead of degrading every photo in it.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

type detectResponse struct {
	Success    bool `json:"success"`
	TotalFaces int  `json:"total_faces"`
	Faces      []struct {
		Embedding  []float32     `json:"embedding"`
		FacialArea models.Region `json:"facial_area"`
	} `json:"faces"`
}

// DetectFaces runs face detection on one image. An image with zero faces is
// a successful call with an empty result, not an error.
func (c *Client) DetectFaces(ctx context.Context, image []byte, filename string) ([]Face, error) {
	var out detectResponse
	if err := c.postImage(ctx, "/detect-faces", image, filename, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("detect faces: remote reported failure")
	}

	faces := make([]Face, 0, len(out.Faces))
	for _, f := range out.Faces {
		faces = append(faces, Face{Signature: f.Embedding, Region: f.FacialArea})
	}
	return faces, nil
}

// ExtractProfile extracts a single reference signature from a profile photo,
// used at registration. Returns nil if no face was found.
func (c *Client) ExtractProfile(ctx context.Context, image []byte, filename string) ([]float32, error) {
	var out struct {
		Success   bool      `json:"success"`
		Embedding []float32 `json:"embedding"`
	}
	if err := c.postImage(ctx, "/extract-profile", image, filename, &out); err != nil {
		return nil, err
	}
	if !out.Success || len(out.Embedding) == 0 {
		return nil, nil
	}
	return out.Embedding, nil
}

type matchBatchRequest struct {
	FaceEmbeddings    [][]float32          `json:"face_embeddings"`
	ProfileEmbeddings map[string][]float32 `json:"profile_embeddings"`
	Threshold         float64              `json:"threshold"`
}

type matchBatchResponse struct {
	Success bool `json:"success"`
	Matches []struct {
		MatchedProfile string  `json:"matched_profile"`
		Confidence     float64 `json:"confidence"`
	} `json:"matches"`
}

// MatchBatch matches the given signatures against the corpus snapshot.
// The result has exactly one slot per input signature, in input order; a nil
// slot means no profile qualified. An empty signature list returns an empty
// result without a round-trip.
func (c *Client) MatchBatch(ctx context.Context, signatures [][]float32, corpus []models.CorpusEntry) ([]*Match, error) {
	if len(signatures) == 0 {
		return []*Match{}, nil
	}

	profiles := make(map[string][]float32, len(corpus))
	for _, entry := range corpus {
		profiles[entry.Username] = entry.Signature
	}

	body, err := json.Marshal(matchBatchRequest{
		FaceEmbeddings:    signatures,
		ProfileEmbeddings: profiles,
		Threshold:         c.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch-match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out matchBatchResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("match batch: remote reported failure")
	}
	if len(out.Matches) != len(signatures) {
		return nil, fmt.Errorf("match batch: got %d results for %d signatures", len(out.Matches), len(signatures))
	}

	matches := make([]*Match, len(out.Matches))
	for i, m := range out.Matches {
		if m.MatchedProfile == "" {
			continue
		}
		matches[i] = &Match{Username: m.MatchedProfile, Confidence: m.Confidence}
	}
	return matches, nil
}

// postImage sends an image as a multipart form and decodes the JSON response.
func (c *Client) postImage(ctx context.Context, endpoint string, image []byte, filename string, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("recognition %s: status %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
