package store

import "time"

// Status represents the lifecycle of a generated work.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// ValidStatus reports whether s is a known work status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Work is the top-level persisted generated story record.
// Every field except ID, Topic, Status and the timestamps starts empty
// and is populated as pipeline stages complete.
type Work struct {
	ID                string    `json:"id"`
	Title             string    `json:"title,omitempty"`
	Topic             string    `json:"topic"`
	Script            string    `json:"script,omitempty"`
	CharacterManifest string    `json:"character_manifest,omitempty"`
	CoverImage        string    `json:"cover_image,omitempty"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Scene is an ordered child unit of a Work, pairing narrative text with
// an optional illustration reference.
type Scene struct {
	ID          string `json:"id"`
	WorkID      string `json:"work_id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// WorkUpdate carries a partial update; only non-nil fields are written.
type WorkUpdate struct {
	Title             *string
	Script            *string
	CharacterManifest *string
	CoverImage        *string
	Status            *Status
}

// WorkSummary is a listing row: a work plus its first scene illustration
// as a thumbnail fallback when no cover exists.
type WorkSummary struct {
	Work
	Thumbnail string `json:"thumbnail,omitempty"`
}

// String helpers for building partial updates inline.

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status { return &s }
