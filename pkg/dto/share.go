package dto

import "github.com/google/uuid"

type ViewDTO struct {
	UserID   uuid.UUID `json:"user_id"`
	ViewedAt string    `json:"viewed_at"`
}

type ShareResponse struct {
	ID           uuid.UUID      `json:"id"`
	SenderID     uuid.UUID      `json:"sender_id"`
	RecipientIDs []uuid.UUID    `json:"recipient_ids"`
	Faces        []FaceMatchDTO `json:"faces"`
	Views        []ViewDTO      `json:"views"`
	SharedAt     string         `json:"shared_at"`
}

// RecipientDTO names one user the photo was delivered to.
type RecipientDTO struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// ShareOutcomeResponse is returned by POST /v1/shares. When no registered
// faces are recognized in the image, Delivered is false, Photo is omitted
// and Recipients is empty.
type ShareOutcomeResponse struct {
	Delivered  bool           `json:"delivered"`
	Recipients []RecipientDTO `json:"recipients"`
	Photo      *ShareResponse `json:"photo,omitempty"`
}
