package gestures

import (
	"strings"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
)

// Event is a user gesture delivered by a renderer or the CLI
type Event interface {
	Validate() error
}

// EntityClicked opens the editor on a note
type EntityClicked struct {
	ID valueobjects.EntityID
}

// Validate implements Event
func (e EntityClicked) Validate() error {
	if !e.ID.Valid() {
		return pkgerrors.NewValidationError("entity id is required")
	}
	return nil
}

// DragEnded reports where a note was dropped
type DragEnded struct {
	ID       valueobjects.EntityID
	Position valueobjects.Position
}

// Validate implements Event
func (e DragEnded) Validate() error {
	if !e.ID.Valid() {
		return pkgerrors.NewValidationError("entity id is required")
	}
	return nil
}

// EntitySaved submits the editor form
type EntitySaved struct {
	Patch entities.EntityPatch
}

// Validate implements Event
func (e EntitySaved) Validate() error {
	if !e.Patch.ID.Valid() {
		return pkgerrors.NewValidationError("entity id is required")
	}
	if e.Patch.Color != nil {
		if _, err := valueobjects.NormalizeColor(*e.Patch.Color); err != nil {
			return err
		}
	}
	return nil
}

// GroupCreated asks for a new cloud
type GroupCreated struct {
	Name string
}

// Validate implements Event
func (e GroupCreated) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return pkgerrors.NewValidationError("cloud name is required")
	}
	return nil
}

// GroupDeleted removes a cloud
type GroupDeleted struct {
	ID valueobjects.GroupID
}

// Validate implements Event
func (e GroupDeleted) Validate() error {
	if !e.ID.Valid() {
		return pkgerrors.NewValidationError("cloud id is required")
	}
	return nil
}

// NoteAdded creates a note from the add-note field
type NoteAdded struct {
	Title string
}

// Validate implements Event
func (e NoteAdded) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return pkgerrors.NewValidationError("title is required")
	}
	return nil
}

// EdgeDrawn links two notes explicitly
type EdgeDrawn struct {
	SourceID valueobjects.EntityID
	TargetID valueobjects.EntityID
}

// Validate implements Event
func (e EdgeDrawn) Validate() error {
	if !e.SourceID.Valid() || !e.TargetID.Valid() {
		return pkgerrors.NewValidationError("both endpoints are required")
	}
	if e.SourceID == e.TargetID {
		return pkgerrors.NewValidationError("cannot connect a note to itself")
	}
	return nil
}

// ConnectionDeleted removes an edge
type ConnectionDeleted struct {
	ID valueobjects.ConnectionID
}

// Validate implements Event
func (e ConnectionDeleted) Validate() error {
	if !e.ID.Valid() {
		return pkgerrors.NewValidationError("connection id is required")
	}
	return nil
}

// EditorClosed dismisses the editor without saving
type EditorClosed struct{}

// Validate implements Event
func (EditorClosed) Validate() error { return nil }
