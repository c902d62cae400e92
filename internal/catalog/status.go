package catalog

import (
	"context"

	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/metrics"
)

// ToggleLearned flips the learned flag of the note with the identity of rawID.
func (s *Service) ToggleLearned(ctx context.Context, rawID string) (*LearnedResult, error) {
	id := identity.Of(rawID)
	v, err := s.learned.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.OverlayWrites.WithLabelValues("learned").Inc()
	s.notify("learned", id)
	msg := "marked as not learned"
	if v {
		msg = "marked as learned"
	}
	return &LearnedResult{NoteID: id, IsLearned: v, Message: msg}, nil
}

// ToggleStarred flips the starred flag of the note with the identity of rawID.
func (s *Service) ToggleStarred(ctx context.Context, rawID string) (*StarredResult, error) {
	id := identity.Of(rawID)
	v, err := s.starred.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.OverlayWrites.WithLabelValues("starred").Inc()
	s.notify("starred", id)
	msg := "star removed"
	if v {
		msg = "star added"
	}
	return &StarredResult{NoteID: id, IsStarred: v, Message: msg}, nil
}
