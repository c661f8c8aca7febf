package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/photoshare/internal/models"
	"github.com/your-org/photoshare/internal/recognition"
)

type shareFixture struct {
	rec    *fakeRecognizer
	corpus *fakeCorpus
	shares *fakeShareStore
	blobs  *fakeBlobStore
	events *fakePublisher
	sharer *Sharer

	alice models.CorpusEntry
	bob   models.CorpusEntry
}

func newShareFixture() *shareFixture {
	f := &shareFixture{
		alice: models.CorpusEntry{UserID: uuid.New(), Username: "alice", Signature: []float32{1}},
		bob:   models.CorpusEntry{UserID: uuid.New(), Username: "bob", Signature: []float32{2}},
	}
	f.rec = &fakeRecognizer{
		facesByFile: map[string][]recognition.Face{},
		matchFor:    map[float32]string{1: "alice", 2: "bob"},
	}
	f.corpus = &fakeCorpus{entries: []models.CorpusEntry{f.alice, f.bob}}
	f.shares = &fakeShareStore{}
	f.blobs = &fakeBlobStore{}
	f.events = &fakePublisher{}
	f.sharer = NewSharer(f.rec, f.corpus, f.shares, f.blobs, f.events)
	return f
}

func TestShareOne(t *testing.T) {
	f := newShareFixture()
	sender := uuid.New()

	f.rec.facesByFile["party.jpg"] = []recognition.Face{
		faceWithSignature(1),
		faceWithSignature(2),
	}

	outcome, err := f.sharer.ShareOne(context.Background(), sender,
		upload("party.jpg", "photo-party", time.Time{}))
	require.NoError(t, err)

	require.NotNil(t, outcome.Photo)
	assert.Equal(t, sender, outcome.Photo.SenderID)
	assert.ElementsMatch(t, []uuid.UUID{f.alice.UserID, f.bob.UserID}, outcome.Photo.RecipientIDs)
	require.Len(t, outcome.Recipients, 2)

	// Shares keep the original bytes only.
	require.Len(t, f.blobs.objects, 1)
	assert.Equal(t, []byte("photo-party"), f.blobs.objects[ShareObjectKey(outcome.Photo.ID)])

	require.Len(t, f.shares.shares, 1)
	require.Len(t, f.events.shareEvents, 1)
	assert.Equal(t, outcome.Photo.ID, f.events.shareEvents[0].PhotoID)
}

func TestShareOneNoInput(t *testing.T) {
	f := newShareFixture()
	_, err := f.sharer.ShareOne(context.Background(), uuid.New(), Upload{Filename: "x.jpg"})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestShareOneNoRecipientsPersistsNothing(t *testing.T) {
	f := newShareFixture()

	// No faces detected at all.
	outcome, err := f.sharer.ShareOne(context.Background(), uuid.New(),
		upload("empty.jpg", "photo-empty", time.Time{}))
	require.NoError(t, err)

	assert.Nil(t, outcome.Photo)
	assert.Empty(t, outcome.Recipients)
	assert.Empty(t, f.blobs.objects)
	assert.Empty(t, f.shares.shares)
	assert.Empty(t, f.events.shareEvents)
}

func TestShareOneUnknownFacesOnly(t *testing.T) {
	f := newShareFixture()
	// A face is found but matches nobody registered.
	f.rec.facesByFile["stranger.jpg"] = []recognition.Face{faceWithSignature(9)}

	outcome, err := f.sharer.ShareOne(context.Background(), uuid.New(),
		upload("stranger.jpg", "photo-stranger", time.Time{}))
	require.NoError(t, err)
	assert.Nil(t, outcome.Photo)
	assert.Empty(t, f.shares.shares)
}

func TestShareOneDetectFailureFailsCall(t *testing.T) {
	f := newShareFixture()
	f.rec.detectErr = errors.New("model crashed")

	_, err := f.sharer.ShareOne(context.Background(), uuid.New(),
		upload("a.jpg", "photo-a", time.Time{}))
	require.Error(t, err)
	assert.Empty(t, f.blobs.objects)
	assert.Empty(t, f.shares.shares)
}

func TestMarkViewed(t *testing.T) {
	f := newShareFixture()
	photoID, viewerID := uuid.New(), uuid.New()

	require.NoError(t, f.sharer.MarkViewed(context.Background(), photoID, viewerID))
	require.NoError(t, f.sharer.MarkViewed(context.Background(), photoID, viewerID))

	assert.True(t, f.shares.views[photoID][viewerID])
	assert.Len(t, f.shares.views[photoID], 1)
}
