package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/imaging"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/recognition"
)

// Recognizer is the remote recognition capability consumed by the pipeline.
// Implemented by recognition.Client; faked in tests.
type Recognizer interface {
	Ping(ctx context.Context) error
	DetectFaces(ctx context.Context, image []byte, filename string) ([]recognition.Face, error)
	MatchBatch(ctx context.Context, signatures [][]float32, corpus []models.CorpusEntry) ([]*recognition.Match, error)
}

// CorpusProvider supplies the current (identity, signature) pairs to match
// against. Fetched once per pipeline invocation and treated as an immutable
// snapshot for the whole call.
type CorpusProvider interface {
	ListCorpus(ctx context.Context) ([]models.CorpusEntry, error)
}

// VariantGenerator derives the servable encodings of an accepted image.
type VariantGenerator interface {
	Generate(data []byte) (*imaging.Variants, error)
}

// GroupStore persists groups and applies membership growth. AddMembers must
// behave as set union on both the group's member set and each user's group
// set: replaying the same additions is a no-op.
type GroupStore interface {
	CreateGroup(ctx context.Context, name string, creatorID uuid.UUID) (*models.Group, error)
	AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error
}

// PhotoStore persists ingested photos. CreatePhoto reports false when a photo
// with the same (group, fingerprint) already exists, making replays no-ops.
type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) (bool, error)
}

// ShareStore persists instantly-shared photos and their monotonically
// growing viewed sets.
type ShareStore interface {
	CreateShare(ctx context.Context, shared *models.SharedPhoto) error
	MarkViewed(ctx context.Context, photoID, viewerID uuid.UUID) error
}

// BlobStore stores image variant bytes under opaque keys. DeleteObjects is
// used to clean up variants uploaded for a photo whose row was never created.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObjects(ctx context.Context, keys []string) error
}

// BatchEvent announces a completed batch ingestion.
type BatchEvent struct {
	GroupID   uuid.UUID   `json:"group_id"`
	PhotoIDs  []uuid.UUID `json:"photo_ids"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// ShareEvent announces a persisted instant share.
type ShareEvent struct {
	PhotoID      uuid.UUID   `json:"photo_id"`
	SenderID     uuid.UUID   `json:"sender_id"`
	RecipientIDs []uuid.UUID `json:"recipient_ids"`
}

// EventPublisher emits pipeline outcomes to the backend event feed. Publish
// failures never fail the pipeline call; they are logged and dropped.
type EventPublisher interface {
	PublishBatchIngested(ctx context.Context, ev BatchEvent) error
	PublishPhotoShared(ctx context.Context, ev ShareEvent) error
}
