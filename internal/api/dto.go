package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/favshelf/internal/catalog"
)

// CreateAlbumRequest is the request body for creating a custom album.
type CreateAlbumRequest struct {
	Name string `json:"name" example:"Weekend trips" validate:"required"`
}

// Validate validates the request.
func (r *CreateAlbumRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, catalog.MaxAlbumNameLen)),
	)
}

// MoveRequest is the request body for copying or moving a note.
type MoveRequest struct {
	TargetAlbum string `json:"target_album" example:"Weekend trips" validate:"required"`
	Operation   string `json:"operation" example:"copy" enums:"copy,move" validate:"required"`
}

// Validate validates the request. The operation value itself is checked by
// the catalog.
func (r *MoveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TargetAlbum, validation.Required),
		validation.Field(&r.Operation, validation.Required),
	)
}

// Album is an album listing entry (aliased from the domain layer).
type Album = catalog.Album

// NotePage is a page of notes (aliased from the domain layer).
type NotePage = catalog.Page

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = catalog.Detail

// StatsResponse is the download statistics response (aliased from the domain layer).
type StatsResponse = catalog.Stats
