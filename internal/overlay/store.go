// Package overlay holds the small, independently persisted stores layered on
// top of the source export: custom albums and the learned/starred flags.
package overlay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/starford/favshelf/internal/apperr"
)

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("overlay: store closed")

var jsonNull = []byte("null")

type command[T any] struct {
	ctx  context.Context
	fn   func(*T) error // nil for reads
	resp chan result[T]
}

type result[T any] struct {
	value T
	err   error
}

// Store is a JSON document of type T behind a Backend.
//
// Concurrency model: a single internal loop owns every load/modify/save
// cycle, so concurrent updates in this process are applied one after another
// and none is lost. Backends implementing Locker are additionally locked
// around each update to exclude other processes.
type Store[T any] struct {
	backend Backend
	empty   func() T
	decode  func([]byte) (T, error)

	cmds    chan command[T]
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New starts a store over backend. empty builds the value used when nothing
// (or a JSON null) is stored; decode turns any other document into a value.
func New[T any](backend Backend, empty func() T, decode func([]byte) (T, error)) *Store[T] {
	s := &Store[T]{
		backend: backend,
		empty:   empty,
		decode:  decode,
		cmds:    make(chan command[T]),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Store[T]) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case cmd := <-s.cmds:
			v, err := s.apply(cmd)
			cmd.resp <- result[T]{value: v, err: err}
		}
	}
}

func (s *Store[T]) apply(cmd command[T]) (T, error) {
	var zero T
	if cmd.fn == nil {
		return s.load(cmd.ctx)
	}

	if locker, ok := s.backend.(Locker); ok {
		unlock, err := locker.Lock(cmd.ctx)
		if err != nil {
			return zero, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		defer func() { _ = unlock() }()
	}

	v, err := s.load(cmd.ctx)
	if err != nil {
		return zero, err
	}
	if err := cmd.fn(&v); err != nil {
		return zero, err
	}
	data, err := encode(v)
	if err != nil {
		return zero, fmt.Errorf("%w: overlay: encode: %w", apperr.ErrIO, err)
	}
	if err := s.backend.Save(cmd.ctx, data); err != nil {
		return zero, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	return v, nil
}

func (s *Store[T]) load(ctx context.Context) (T, error) {
	var zero T
	data, err := s.backend.Load(ctx)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return s.empty(), nil
	}
	v, err := s.decode(data)
	if err != nil {
		return zero, fmt.Errorf("%w: overlay: decode: %w", apperr.ErrIO, err)
	}
	return v, nil
}

// Get loads the current value.
func (s *Store[T]) Get(ctx context.Context) (T, error) {
	return s.do(ctx, nil)
}

// Update loads the current value, applies fn and saves the result. When fn
// returns an error nothing is saved and the error is returned unchanged.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) (T, error) {
	return s.do(ctx, fn)
}

func (s *Store[T]) do(ctx context.Context, fn func(*T) error) (T, error) {
	var zero T
	if s.closed.Load() {
		return zero, ErrClosed
	}
	cmd := command[T]{ctx: ctx, fn: fn, resp: make(chan result[T], 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.stopped:
		return zero, ErrClosed
	}
	select {
	case res := <-cmd.resp:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops the store loop. Pending calls return ErrClosed.
func (s *Store[T]) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
