package models

import (
	"time"

	"github.com/google/uuid"
)

// Region is a face bounding box in pixel coordinates of the full image.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceMatch links one detected face in a photo to a registered user.
// Within a single photo there is at most one FaceMatch per user.
type FaceMatch struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Username   string    `json:"username" db:"username"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Region     Region    `json:"region" db:"region"`
}

// Photo is one ingested image belonging to exactly one group. Variants live
// in object storage under the photo's ID; the row carries only metadata.
type Photo struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	GroupID     uuid.UUID   `json:"group_id" db:"group_id"`
	UploaderID  uuid.UUID   `json:"uploader_id" db:"uploader_id"`
	Fingerprint string      `json:"fingerprint" db:"fingerprint"`
	ContentType string      `json:"content_type" db:"content_type"`
	Faces       []FaceMatch `json:"faces" db:"faces"`
	CapturedAt  time.Time   `json:"captured_at" db:"captured_at"`
	UploadedAt  time.Time   `json:"uploaded_at" db:"uploaded_at"`
}

// VariantSize selects one of the stored encodings of a photo.
type VariantSize string

const (
	VariantSmall  VariantSize = "small"
	VariantMedium VariantSize = "medium"
	VariantFull   VariantSize = "full"
)

// NormalizeVariant maps an arbitrary size selector onto a stored variant.
// Unrecognized selectors fall back to medium.
func NormalizeVariant(s string) VariantSize {
	switch VariantSize(s) {
	case VariantSmall, VariantMedium, VariantFull:
		return VariantSize(s)
	default:
		return VariantMedium
	}
}
