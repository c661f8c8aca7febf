package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/observability"
	"github.com/your-org/photoshare/internal/recognition"
)

// ShareOutcome is the result of one instant share. An empty recipient set is
// a legitimate terminal state, not an error; nothing is persisted for it and
// Photo stays nil.
type ShareOutcome struct {
	Photo      *models.SharedPhoto
	Recipients []MemberRef
}

// Sharer is the single-photo analogue of the batch ingestor: detect, match
// against the full corpus, and fan the photo out to the matched users.
type Sharer struct {
	rec    Recognizer
	corpus CorpusProvider
	shares ShareStore
	blobs  BlobStore
	events EventPublisher
}

func NewSharer(rec Recognizer, corpus CorpusProvider, shares ShareStore, blobs BlobStore, events EventPublisher) *Sharer {
	return &Sharer{rec: rec, corpus: corpus, shares: shares, blobs: blobs, events: events}
}

// ShareOne detects and matches faces in a single upload and shares the photo
// with every recognized user. Remote unreachability fails the call with
// nothing written.
func (s *Sharer) ShareOne(ctx context.Context, senderID uuid.UUID, up Upload) (*ShareOutcome, error) {
	if len(up.Data) == 0 {
		return nil, ErrNoInput
	}

	start := time.Now()

	corpus, err := s.corpus.ListCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}

	faces, err := s.rec.DetectFaces(ctx, up.Data, up.Filename)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	observability.FacesDetected.Add(float64(len(faces)))

	var matches []*recognition.Match
	if len(faces) > 0 {
		signatures := make([][]float32, len(faces))
		for i, f := range faces {
			signatures[i] = f.Signature
		}
		matches, err = s.rec.MatchBatch(ctx, signatures, corpus)
		if err != nil {
			return nil, fmt.Errorf("match faces: %w", err)
		}
	}

	resolved := recognition.ResolveMatches(faces, matches, corpus)
	observability.FacesMatched.Add(float64(len(resolved)))

	recipients := newUserSet()
	for _, fm := range resolved {
		recipients.add(fm.UserID, fm.Username)
	}

	if recipients.len() == 0 {
		slog.Info("instant share found no known recipients", "sender", senderID)
		return &ShareOutcome{Recipients: []MemberRef{}}, nil
	}

	shared := &models.SharedPhoto{
		ID:           uuid.New(),
		SenderID:     senderID,
		ContentType:  up.ContentType,
		RecipientIDs: recipients.ids(),
		Faces:        resolved,
		SharedAt:     time.Now(),
	}

	if err := s.blobs.PutObject(ctx, ShareObjectKey(shared.ID), up.Data, up.ContentType); err != nil {
		return nil, fmt.Errorf("store shared photo: %w", err)
	}
	if err := s.shares.CreateShare(ctx, shared); err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}

	if s.events != nil {
		ev := ShareEvent{PhotoID: shared.ID, SenderID: senderID, RecipientIDs: shared.RecipientIDs}
		if err := s.events.PublishPhotoShared(ctx, ev); err != nil {
			slog.Warn("publish share event", "photo", shared.ID, "error", err)
		}
	}

	observability.PhotosShared.Inc()
	observability.PipelineDuration.WithLabelValues("share").Observe(time.Since(start).Seconds())

	slog.Info("photo shared", "photo", shared.ID, "recipients", recipients.len())

	return &ShareOutcome{Photo: shared, Recipients: recipients.refs()}, nil
}

// MarkViewed records that a recipient opened a shared photo. Repeat calls by
// the same viewer are no-ops.
func (s *Sharer) MarkViewed(ctx context.Context, photoID, viewerID uuid.UUID) error {
	if err := s.shares.MarkViewed(ctx, photoID, viewerID); err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}
