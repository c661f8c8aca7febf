package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/imaging"
	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/recognition"
)

type fakeRecognizer struct {
	pingErr   error
	detectErr error
	matchErr  error
	// facesByFile returns detections per upload filename.
	facesByFile map[string][]recognition.Face
	// matchFor maps a face signature's first element to a username.
	matchFor map[float32]string
}

func (f *fakeRecognizer) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeRecognizer) DetectFaces(ctx context.Context, image []byte, filename string) ([]recognition.Face, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.facesByFile[filename], nil
}

func (f *fakeRecognizer) MatchBatch(ctx context.Context, signatures [][]float32, corpus []models.CorpusEntry) ([]*recognition.Match, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	matches := make([]*recognition.Match, len(signatures))
	for i, sig := range signatures {
		if len(sig) == 0 {
			continue
		}
		if username, ok := f.matchFor[sig[0]]; ok {
			matches[i] = &recognition.Match{Username: username, Confidence: 0.9}
		}
	}
	return matches, nil
}

type fakeCorpus struct {
	entries []models.CorpusEntry
	err     error
}

func (f *fakeCorpus) ListCorpus(ctx context.Context) ([]models.CorpusEntry, error) {
	return f.entries, f.err
}

type fakeVariants struct {
	failOn string
}

func (f *fakeVariants) Generate(data []byte) (*imaging.Variants, error) {
	if f.failOn != "" && string(data) == f.failOn {
		return nil, errors.New("broken image")
	}
	return &imaging.Variants{Small: data, Medium: data, Full: data}, nil
}

type fakeGroupStore struct {
	group   *models.Group
	members map[uuid.UUID]bool
	// addCalls counts AddMembers invocations.
	addCalls int
}

func (f *fakeGroupStore) CreateGroup(ctx context.Context, name string, creatorID uuid.UUID) (*models.Group, error) {
	f.group = &models.Group{ID: uuid.New(), Name: name, CreatorID: creatorID}
	return f.group, nil
}

func (f *fakeGroupStore) AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	f.addCalls++
	if f.members == nil {
		f.members = make(map[uuid.UUID]bool)
	}
	for _, id := range userIDs {
		f.members[id] = true
	}
	return nil
}

type fakePhotoStore struct {
	mu sync.Mutex
	// conflicts holds fingerprints already present in the group.
	conflicts map[string]bool
	created   []*models.Photo
}

func (f *fakePhotoStore) CreatePhoto(ctx context.Context, photo *models.Photo) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts[photo.Fingerprint] {
		return false, nil
	}
	if f.conflicts == nil {
		f.conflicts = make(map[string]bool)
	}
	f.conflicts[photo.Fingerprint] = true
	f.created = append(f.created, photo)
	return true, nil
}

type fakeShareStore struct {
	shares []*models.SharedPhoto
	views  map[uuid.UUID]map[uuid.UUID]bool
}

func (f *fakeShareStore) CreateShare(ctx context.Context, shared *models.SharedPhoto) error {
	f.shares = append(f.shares, shared)
	return nil
}

func (f *fakeShareStore) MarkViewed(ctx context.Context, photoID, viewerID uuid.UUID) error {
	if f.views == nil {
		f.views = make(map[uuid.UUID]map[uuid.UUID]bool)
	}
	if f.views[photoID] == nil {
		f.views[photoID] = make(map[uuid.UUID]bool)
	}
	f.views[photoID][viewerID] = true
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeBlobStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) DeleteObjects(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.objects, key)
	}
	return nil
}

type fakePublisher struct {
	batchEvents []BatchEvent
	shareEvents []ShareEvent
	err         error
}

func (f *fakePublisher) PublishBatchIngested(ctx context.Context, ev BatchEvent) error {
	if f.err != nil {
		return f.err
	}
	f.batchEvents = append(f.batchEvents, ev)
	return nil
}

func (f *fakePublisher) PublishPhotoShared(ctx context.Context, ev ShareEvent) error {
	if f.err != nil {
		return f.err
	}
	f.shareEvents = append(f.shareEvents, ev)
	return nil
}
