// Package analytics records clip view events and serves aggregate watch
// statistics. All persistence goes through the injected store; the HTTP
// layer never touches the backing medium directly.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/clipcast/internal/platform/events"
	"github.com/example/clipcast/services/analytics/internal/store"
)

// Event kinds accepted by RecordEvent.
const (
	EventView  = "view"
	EventWatch = "watch"
)

// ErrInvalidEvent signals a malformed mutation request. The store is left
// unmodified when it is returned.
var ErrInvalidEvent = errors.New("invalid analytics event")

// Service orchestrates event recording and stat queries.
type Service struct {
	store  store.Store
	events *events.Publisher
	log    *zap.Logger
}

// NewService wires the service. pub may be nil; event publishing then
// becomes a no-op.
func NewService(s store.Store, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{store: s, events: pub, log: log}
}

// RecordEvent applies one view or watch event for userID against contentID
// as a single atomic read-modify-write.
//
//   - view: the first event from a user creates their progress entry and
//     increments the view count; repeated views are idempotent no-ops.
//   - watch: requires percent in [0,100]. A first watch from a user also
//     counts as their view; subsequent watches only ever raise the stored
//     percent (rewinds never regress it).
func (s *Service) RecordEvent(ctx context.Context, contentID, kind, userID string, percent *int) (store.ContentRecord, error) {
	if contentID == "" || userID == "" {
		return store.ContentRecord{}, fmt.Errorf("%w: missing content or user id", ErrInvalidEvent)
	}

	switch kind {
	case EventView:
	case EventWatch:
		if percent == nil {
			return store.ContentRecord{}, fmt.Errorf("%w: watch event requires percent", ErrInvalidEvent)
		}
		if *percent < 0 || *percent > 100 {
			return store.ContentRecord{}, fmt.Errorf("%w: percent %d out of range", ErrInvalidEvent, *percent)
		}
	default:
		return store.ContentRecord{}, fmt.Errorf("%w: unknown event %q", ErrInvalidEvent, kind)
	}

	rec, err := s.store.WithContent(ctx, contentID, func(r store.ContentRecord) store.ContentRecord {
		prev, seen := r.Users[userID]
		switch kind {
		case EventView:
			if !seen {
				r.Views++
				r.Users[userID] = store.UserProgress{}
			}
		case EventWatch:
			next := *percent
			if !seen {
				r.Views++
			} else if prev.WatchPercent > next {
				next = prev.WatchPercent
			}
			r.Users[userID] = store.UserProgress{WatchPercent: next}
		}
		return r
	})
	if err != nil {
		return store.ContentRecord{}, err
	}

	s.publish(contentID, kind, userID, percent)
	return rec, nil
}

// GetStats returns the stats triple for contentID as seen by userID.
// An unseen content id yields the zero triple, never an error.
func (s *Service) GetStats(ctx context.Context, contentID, userID string) (Stats, error) {
	rec, ok, err := s.store.Content(ctx, contentID)
	if err != nil {
		return Stats{}, err
	}
	if !ok {
		return Stats{}, nil
	}
	return StatsFor(rec, userID), nil
}

func (s *Service) publish(contentID, kind, userID string, percent *int) {
	props := map[string]any{"content_id": contentID}
	subject := events.SubjectClipViewed
	name := "clip_viewed"
	if kind == EventWatch {
		subject = events.SubjectClipWatched
		name = "clip_watched"
		props["percent"] = *percent
	}
	s.events.Publish(subject, name, userID, props)
}
