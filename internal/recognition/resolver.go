package recognition

import (
	"github.com/google/uuid"

	"github.com/your-org/photoshare/internal/models"
)

// ResolveMatches turns raw per-face match results into the deduplicated
// association list for one photo. Faces and matches are parallel slices in
// detection order.
//
// Rules: the first detection matched to a user claims that user; later
// detections matching the same user are dropped. Matches naming a profile
// missing from the corpus snapshot (e.g. deleted between fetch and match)
// are skipped as unknown. Confidence filtering already happened remotely.
func ResolveMatches(faces []Face, matches []*Match, corpus []models.CorpusEntry) []models.FaceMatch {
	byUsername := make(map[string]models.CorpusEntry, len(corpus))
	for _, entry := range corpus {
		byUsername[entry.Username] = entry
	}

	claimed := make(map[uuid.UUID]bool)
	resolved := make([]models.FaceMatch, 0, len(faces))

	for i, face := range faces {
		if i >= len(matches) || matches[i] == nil {
			continue
		}
		entry, ok := byUsername[matches[i].Username]
		if !ok {
			continue
		}
		if claimed[entry.UserID] {
			continue
		}
		claimed[entry.UserID] = true
		resolved = append(resolved, models.FaceMatch{
			UserID:     entry.UserID,
			Username:   entry.Username,
			Confidence: matches[i].Confidence,
			Region:     face.Region,
		})
	}
	return resolved
}
