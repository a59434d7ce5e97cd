// Package store persists clip analytics: for every content id, the number
// of distinct viewers and each viewer's furthest watch position.
package store

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the backing medium could not be read or written.
// The stored snapshot is never left half-updated when it is returned.
var ErrUnavailable = errors.New("analytics store unavailable")

// UserProgress tracks a single viewer's furthest position in one clip.
// WatchPercent is in [0,100] and never decreases.
type UserProgress struct {
	WatchPercent int `json:"watchPercent"`
}

// ContentRecord aggregates all activity for one clip.
// Views always equals the number of distinct keys ever added to Users.
type ContentRecord struct {
	Views int                     `json:"views"`
	Users map[string]UserProgress `json:"users"`
}

// NewContentRecord returns a zero-valued record with Users initialized,
// so no consumer ever needs a defensive nil check.
func NewContentRecord() ContentRecord {
	return ContentRecord{Users: make(map[string]UserProgress)}
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state behind the store's back.
func (r ContentRecord) Clone() ContentRecord {
	out := ContentRecord{Views: r.Views, Users: make(map[string]UserProgress, len(r.Users))}
	for id, p := range r.Users {
		out.Users[id] = p
	}
	return out
}

// Mutator transforms a content record inside an atomic read-modify-write.
// It receives a private copy and returns the state to persist.
type Mutator func(ContentRecord) ContentRecord

// Store is the durable mapping from content id to ContentRecord.
//
// WithContent must be serialized against every other mutation of the same
// content id so that concurrent events never lose updates. Content and Load
// must observe consistent (not torn) snapshots but may run concurrently
// with each other.
type Store interface {
	// Load returns a snapshot of the full mapping.
	Load(ctx context.Context) (map[string]ContentRecord, error)
	// Save replaces the full mapping.
	Save(ctx context.Context, data map[string]ContentRecord) error
	// WithContent atomically applies mutate to the record for id, creating a
	// zero-valued record first when the id has never been seen, and returns
	// the persisted result.
	WithContent(ctx context.Context, id string, mutate Mutator) (ContentRecord, error)
	// Content returns the record for id and whether it exists.
	// A missing id is not an error.
	Content(ctx context.Context, id string) (ContentRecord, bool, error)
}
