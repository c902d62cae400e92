// Package apperr holds the sentinel errors shared by the catalog, its
// transports and the collector.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrDuplicateInAlbum = errors.New("note already in album")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrIO               = errors.New("io failure")
)
