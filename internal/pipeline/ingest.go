package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/imaging"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/observability"
	"github.com/your-org/photoshare/internal/recognition"
)

var (
	// ErrEmptyBatch rejects an ingestion call with no uploads before any
	// remote work happens.
	ErrEmptyBatch = errors.New("empty upload batch")
	// ErrBatchTooLarge rejects a batch above the configured boundary limit.
	ErrBatchTooLarge = errors.New("upload batch too large")
	// ErrNoInput rejects a share call without a photo.
	ErrNoInput = errors.New("no photo provided")
)

// Upload is one raw image submitted to the pipeline. It exists only for the
// duration of a single call.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// CapturedAt is the declared capture time; zero means unknown and
	// defaults to ingestion time.
	CapturedAt time.Time
}

// MemberRef identifies a user touched by a batch, for reporting to callers.
type MemberRef struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// BatchResult summarizes one completed ingestion.
type BatchResult struct {
	Group *models.Group
	// Photos are the persisted photos of this batch, sorted by capture time.
	Photos []*models.Photo
	// Detected lists every identity with at least one face association in
	// the batch (the creator is a member regardless but is not listed here
	// unless their face was found).
	Detected []MemberRef
	// DuplicatesSkipped counts uploads dropped by content dedup. Advisory
	// only; duplicate drops are not errors.
	DuplicatesSkipped int
}

// Ingestor orchestrates batch ingestion: dedup, concurrent per-photo
// detection and matching, variant generation, and idempotent persistence.
// All collaborators are injected; the Ingestor holds no mutable state.
type Ingestor struct {
	rec      Recognizer
	corpus   CorpusProvider
	variants VariantGenerator
	groups   GroupStore
	photos   PhotoStore
	blobs    BlobStore
	events   EventPublisher
	maxBatch int
}

func NewIngestor(
	rec Recognizer,
	corpus CorpusProvider,
	variants VariantGenerator,
	groups GroupStore,
	photos PhotoStore,
	blobs BlobStore,
	events EventPublisher,
	maxBatch int,
) *Ingestor {
	return &Ingestor{
		rec:      rec,
		corpus:   corpus,
		variants: variants,
		groups:   groups,
		photos:   photos,
		blobs:    blobs,
		events:   events,
		maxBatch: maxBatch,
	}
}

// unit is the outcome of processing one unique upload. A nil photo means the
// upload was dropped (variant encode failure) without affecting siblings.
type unit struct {
	photo    *models.Photo
	variants *imaging.Variants
	upload   Upload
}

// IngestBatch creates a group from a batch of uploads. Per-photo detect or
// match failures degrade only that photo; an unreachable recognition service
// or registry fails the whole call before anything is written.
func (ing *Ingestor) IngestBatch(ctx context.Context, groupName string, creatorID uuid.UUID, uploads []Upload) (*BatchResult, error) {
	if len(uploads) == 0 {
		return nil, ErrEmptyBatch
	}
	if ing.maxBatch > 0 && len(uploads) > ing.maxBatch {
		return nil, fmt.Errorf("%w: %d uploads, limit %d", ErrBatchTooLarge, len(uploads), ing.maxBatch)
	}
	if groupName == "" {
		return nil, fmt.Errorf("%w: group name required", ErrNoInput)
	}

	start := time.Now()

	// Whole-call preconditions: the recognition service and the registry
	// must both be reachable. Nothing is persisted past this point until
	// every unit has finished.
	if err := ing.rec.Ping(ctx); err != nil {
		return nil, fmt.Errorf("recognition precheck: %w", err)
	}
	corpus, err := ing.corpus.ListCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}

	unique, skipped := dedupUploads(uploads)
	if skipped > 0 {
		observability.DuplicatesSkipped.Add(float64(skipped))
	}

	// One unit per unique upload. Units are independent and may finish in
	// any order; results land in their own slot so no locking is needed.
	units := make([]unit, len(unique))
	var wg sync.WaitGroup
	for i, up := range unique {
		wg.Add(1)
		go func(i int, up Upload) {
			defer wg.Done()
			units[i] = ing.processUpload(ctx, creatorID, up, corpus)
		}(i, up)
	}
	wg.Wait()

	group, err := ing.groups.CreateGroup(ctx, groupName, creatorID)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	kept := make([]*models.Photo, 0, len(units))
	touched := newUserSet()
	for _, u := range units {
		if u.photo == nil {
			continue
		}
		u.photo.GroupID = group.ID

		if err := ing.storeVariants(ctx, u.photo, u.variants, u.upload.ContentType); err != nil {
			slog.Warn("store photo variants", "photo", u.photo.ID, "error", err)
			continue
		}
		created, err := ing.photos.CreatePhoto(ctx, u.photo)
		if err != nil {
			return nil, fmt.Errorf("create photo: %w", err)
		}
		if !created {
			// Same content already present in this group; treat like a
			// batch-level duplicate and remove the variants uploaded for
			// the photo row that never landed.
			observability.DuplicatesSkipped.Inc()
			keys := []string{
				PhotoVariantKey(u.photo.ID, models.VariantSmall),
				PhotoVariantKey(u.photo.ID, models.VariantMedium),
				PhotoVariantKey(u.photo.ID, models.VariantFull),
			}
			if err := ing.blobs.DeleteObjects(ctx, keys); err != nil {
				slog.Warn("clean up orphaned variants", "photo", u.photo.ID, "error", err)
			}
			continue
		}

		kept = append(kept, u.photo)
		for _, fm := range u.photo.Faces {
			touched.add(fm.UserID, fm.Username)
		}
	}

	members := touched.ids()
	members = append(members, creatorID)
	if err := ing.groups.AddMembers(ctx, group.ID, members); err != nil {
		return nil, fmt.Errorf("update membership: %w", err)
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].CapturedAt.Before(kept[j].CapturedAt)
	})

	if ing.events != nil {
		ev := BatchEvent{GroupID: group.ID, MemberIDs: members}
		for _, p := range kept {
			ev.PhotoIDs = append(ev.PhotoIDs, p.ID)
		}
		if err := ing.events.PublishBatchIngested(ctx, ev); err != nil {
			slog.Warn("publish batch event", "group", group.ID, "error", err)
		}
	}

	observability.PhotosIngested.Add(float64(len(kept)))
	observability.PipelineDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())

	slog.Info("batch ingested",
		"group", group.ID,
		"photos", len(kept),
		"duplicates", skipped,
		"detected_users", touched.len(),
	)

	return &BatchResult{
		Group:             group,
		Photos:            kept,
		Detected:          touched.refs(),
		DuplicatesSkipped: skipped,
	}, nil
}

// processUpload runs detect, match, resolve, and variant generation for one
// unique upload. Detect or match failures degrade the photo to zero
// associations; a variant failure drops the photo entirely.
func (ing *Ingestor) processUpload(ctx context.Context, uploaderID uuid.UUID, up Upload, corpus []models.CorpusEntry) unit {
	faces := ing.detectAndLog(ctx, up)
	observability.FacesDetected.Add(float64(len(faces)))

	var matches []*recognition.Match
	if len(faces) > 0 {
		signatures := make([][]float32, len(faces))
		for i, f := range faces {
			signatures[i] = f.Signature
		}
		var err error
		matches, err = ing.rec.MatchBatch(ctx, signatures, corpus)
		if err != nil {
			slog.Warn("match faces", "file", up.Filename, "error", err)
			matches = nil
		}
	}

	resolved := recognition.ResolveMatches(faces, matches, corpus)
	observability.FacesMatched.Add(float64(len(resolved)))

	vars, err := ing.variants.Generate(up.Data)
	if err != nil {
		slog.Warn("generate variants, dropping photo", "file", up.Filename, "error", err)
		return unit{}
	}

	capturedAt := up.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	return unit{
		photo: &models.Photo{
			ID:          uuid.New(),
			UploaderID:  uploaderID,
			Fingerprint: imaging.Fingerprint(up.Data),
			ContentType: up.ContentType,
			Faces:       resolved,
			CapturedAt:  capturedAt,
			UploadedAt:  time.Now(),
		},
		variants: vars,
		upload:   up,
	}
}

func (ing *Ingestor) detectAndLog(ctx context.Context, up Upload) []recognition.Face {
	faces, err := ing.rec.DetectFaces(ctx, up.Data, up.Filename)
	if err != nil {
		slog.Warn("detect faces", "file", up.Filename, "error", err)
		return nil
	}
	return faces
}

func (ing *Ingestor) storeVariants(ctx context.Context, photo *models.Photo, vars *imaging.Variants, contentType string) error {
	variants := []struct {
		size models.VariantSize
		data []byte
		ct   string
	}{
		{models.VariantSmall, vars.Small, "image/jpeg"},
		{models.VariantMedium, vars.Medium, "image/jpeg"},
		{models.VariantFull, vars.Full, contentType},
	}
	for _, v := range variants {
		if err := ing.blobs.PutObject(ctx, PhotoVariantKey(photo.ID, v.size), v.data, v.ct); err != nil {
			return fmt.Errorf("put %s variant: %w", v.size, err)
		}
	}
	return nil
}

// PhotoVariantKey is the object-store key of one variant of a group photo.
func PhotoVariantKey(photoID uuid.UUID, size models.VariantSize) string {
	return fmt.Sprintf("photos/%s/%s", photoID, size)
}

// ShareObjectKey is the object-store key of a shared photo's image.
func ShareObjectKey(photoID uuid.UUID) string {
	return fmt.Sprintf("shares/%s/full", photoID)
}

// dedupUploads keeps the first occurrence per content fingerprint, preserving
// batch order, and counts the silently dropped duplicates.
func dedupUploads(uploads []Upload) ([]Upload, int) {
	seen := make(map[string]bool, len(uploads))
	unique := make([]Upload, 0, len(uploads))
	for _, up := range uploads {
		fp := imaging.Fingerprint(up.Data)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		unique = append(unique, up)
	}
	return unique, len(uploads) - len(unique)
}
