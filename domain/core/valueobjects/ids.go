package valueobjects

import (
	"encoding/json"
	"strconv"
)

// EntityID identifies a note. It is assigned by the graph service, stable for the
// lifetime of the note, and used as the join key by every local structure.
type EntityID int64

// ConnectionID identifies a connection between two notes
type ConnectionID int64

// GroupID identifies a cloud
type GroupID int64

// Valid reports whether the ID was assigned by the server
func (id EntityID) Valid() bool { return id > 0 }

// String returns the decimal form used in REST paths
func (id EntityID) String() string { return strconv.FormatInt(int64(id), 10) }

// Valid reports whether the ID was assigned by the server
func (id ConnectionID) Valid() bool { return id > 0 }

// String returns the decimal form used in REST paths
func (id ConnectionID) String() string { return strconv.FormatInt(int64(id), 10) }

// Valid reports whether the ID was assigned by the server
func (id GroupID) Valid() bool { return id > 0 }

// String returns the decimal form used in REST paths
func (id GroupID) String() string { return strconv.FormatInt(int64(id), 10) }

// GroupRef is a nullable reference from a note to its cloud.
// The zero value means "no cloud".
type GroupRef struct {
	id    GroupID
	valid bool
}

// NoGroup returns an empty group reference
func NoGroup() GroupRef {
	return GroupRef{}
}

// GroupOf returns a reference to the given cloud. Non-positive IDs yield NoGroup.
func GroupOf(id GroupID) GroupRef {
	if !id.Valid() {
		return GroupRef{}
	}
	return GroupRef{id: id, valid: true}
}

// ID returns the referenced cloud and whether the reference is set
func (g GroupRef) ID() (GroupID, bool) {
	return g.id, g.valid
}

// IsSet reports whether the note belongs to a cloud
func (g GroupRef) IsSet() bool {
	return g.valid
}

// Equals checks if two references point at the same cloud (or both at none)
func (g GroupRef) Equals(other GroupRef) bool {
	return g.valid == other.valid && g.id == other.id
}

// String returns the cloud ID, or "none"
func (g GroupRef) String() string {
	if !g.valid {
		return "none"
	}
	return g.id.String()
}

// MarshalJSON implements json.Marshaler
func (g GroupRef) MarshalJSON() ([]byte, error) {
	if !g.valid {
		return []byte("null"), nil
	}
	return json.Marshal(int64(g.id))
}

// UnmarshalJSON implements json.Unmarshaler
func (g *GroupRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = GroupRef{}
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*g = GroupOf(GroupID(id))
	return nil
}
