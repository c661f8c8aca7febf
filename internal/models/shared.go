package models

import (
	"time"

	"github.com/google/uuid"
)

// View records that one recipient opened a shared photo. At most one entry
// exists per (photo, viewer) pair.
type View struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	ViewedAt time.Time `json:"viewed_at" db:"viewed_at"`
}

// SharedPhoto is a single instantly-shared image. Recipients are derived from
// the faces found in it; the viewed set grows monotonically.
type SharedPhoto struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	SenderID     uuid.UUID   `json:"sender_id" db:"sender_id"`
	ContentType  string      `json:"content_type" db:"content_type"`
	RecipientIDs []uuid.UUID `json:"recipient_ids" db:"recipient_ids"`
	Faces        []FaceMatch `json:"faces" db:"faces"`
	Views        []View      `json:"views" db:"views"`
	SharedAt     time.Time   `json:"shared_at" db:"shared_at"`
}
