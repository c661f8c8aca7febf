package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered identity. The face signature is extracted from the
// profile photo at registration and is immutable afterwards.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Signature   []float32 `json:"-" db:"signature"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CorpusEntry is one (identity, signature) pair used for matching. The corpus
// is fetched once per pipeline invocation and read concurrently, never mutated.
type CorpusEntry struct {
	UserID    uuid.UUID
	Username  string
	Signature []float32
}
