package entities

import (
	"math"
	"unicode/utf8"

	"notegraph/domain/core/valueobjects"
)

// Entity is the local mirror of a note held by the graph service
type Entity struct {
	ID       valueobjects.EntityID
	Title    string
	Content  string
	Color    string
	GroupID  valueobjects.GroupRef
	Position valueobjects.Position

	// Size is derived by the server from the content length
	Size int
}

// NodeValue returns the renderer's node value: a log-scaled size so long notes
// grow without dwarfing short ones.
func (e Entity) NodeValue() float64 {
	return math.Max(1, math.Log(float64(e.Size)+1))*3 + 2
}

// DisplayColor returns the note colour, falling back to the default
func (e Entity) DisplayColor() string {
	if e.Color == "" {
		return valueobjects.DefaultColor
	}
	return e.Color
}

// DerivedSize is the fallback used when the server omits size
func DerivedSize(content string) int {
	return utf8.RuneCountInString(content)
}

// EntityPatch is a partial update of a note. Nil fields are left untouched;
// a non-nil GroupID holding NoGroup clears the cloud.
type EntityPatch struct {
	ID       valueobjects.EntityID
	Title    *string
	Content  *string
	Color    *string
	GroupID  *valueobjects.GroupRef
	Position *valueobjects.Position
	Size     *int
}

// IsEmpty reports whether the patch changes nothing
func (p EntityPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Color == nil &&
		p.GroupID == nil && p.Position == nil && p.Size == nil
}

// TouchesEditable reports whether the patch changes a field the editor owns
func (p EntityPatch) TouchesEditable() bool {
	return p.Content != nil || p.Color != nil || p.GroupID != nil
}

// Apply returns a copy of e with the patch applied
func (p EntityPatch) Apply(e Entity) Entity {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.GroupID != nil {
		e.GroupID = *p.GroupID
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Size != nil {
		e.Size = *p.Size
	}
	return e
}

// PositionPatch builds a patch that only moves a note
func PositionPatch(id valueobjects.EntityID, pos valueobjects.Position) EntityPatch {
	return EntityPatch{ID: id, Position: &pos}
}
