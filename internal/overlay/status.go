package overlay

import (
	"context"
	"encoding/json"
)

// Status maps note identities to a flag.
type Status = map[string]bool

// StatusStore is the learned or starred flag overlay.
type StatusStore struct {
	store *Store[Status]
}

// NewStatusStore starts a status store over backend.
func NewStatusStore(backend Backend) *StatusStore {
	return &StatusStore{store: New(backend, func() Status { return Status{} }, decodeStatus)}
}

// decodeStatus drops entries whose value is not a boolean.
func decodeStatus(data []byte) (Status, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	st := make(Status, len(raw))
	for id, v := range raw {
		var flag bool
		if json.Unmarshal(v, &flag) == nil {
			st[id] = flag
		}
	}
	return st, nil
}

// All returns the whole mapping.
func (s *StatusStore) All(ctx context.Context) (Status, error) {
	return s.store.Get(ctx)
}

// Toggle flips the flag of identity and returns the new value. A missing
// entry counts as false.
func (s *StatusStore) Toggle(ctx context.Context, identity string) (bool, error) {
	st, err := s.store.Update(ctx, func(st *Status) error {
		(*st)[identity] = !(*st)[identity]
		return nil
	})
	if err != nil {
		return false, err
	}
	return st[identity], nil
}

// Close stops the store.
func (s *StatusStore) Close() {
	s.store.Close()
}
