package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a shared album. Members and photos only ever grow, and both are
// sets: adding an existing member or photo again is a no-op.
type Group struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	CreatorID uuid.UUID   `json:"creator_id" db:"creator_id"`
	MemberIDs []uuid.UUID `json:"member_ids" db:"member_ids"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
