package state

import (
	"sync"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
)

// GraphStateStore is the in-memory mirror of the remote graph and the single
// source of truth for the renderer. It is safe for concurrent use; every value
// it hands out is a copy.
type GraphStateStore struct {
	mu sync.RWMutex

	entities    map[valueobjects.EntityID]entities.Entity
	order       []valueobjects.EntityID
	connections map[valueobjects.ConnectionID]entities.Connection
	connOrder   []valueobjects.ConnectionID
	groups      map[valueobjects.GroupID]entities.Group
	groupOrder  []valueobjects.GroupID

	version uint64
}

// NewGraphStateStore creates an empty store
func NewGraphStateStore() *GraphStateStore {
	s := &GraphStateStore{}
	s.reset()
	return s
}

func (s *GraphStateStore) reset() {
	s.entities = make(map[valueobjects.EntityID]entities.Entity)
	s.order = nil
	s.connections = make(map[valueobjects.ConnectionID]entities.Connection)
	s.connOrder = nil
	s.groups = make(map[valueobjects.GroupID]entities.Group)
	s.groupOrder = nil
}

// Replace discards all three collections and rebuilds them from the snapshot
func (s *GraphStateStore) Replace(snapshot *aggregates.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	if snapshot != nil {
		for _, e := range snapshot.Entities {
			s.putEntity(e)
		}
		for _, c := range snapshot.Connections {
			s.putConnection(c)
		}
		for _, g := range snapshot.Groups {
			s.putGroup(g)
		}
	}
	s.version++
}

// UpsertEntity merges a partial update into the local copy of a note, inserting
// the note when it is not known yet.
func (s *GraphStateStore) UpsertEntity(patch entities.EntityPatch) (entities.Entity, error) {
	if !patch.ID.Valid() {
		return entities.Entity{}, pkgerrors.NewValidationError("entity id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entities[patch.ID]
	if !ok {
		current = entities.Entity{ID: patch.ID}
	}
	updated := patch.Apply(current)
	if patch.Content != nil && patch.Size == nil {
		updated.Size = entities.DerivedSize(updated.Content)
	}
	s.putEntity(updated)
	s.version++
	return updated, nil
}

// UpsertConnection inserts or replaces a connection by ID
func (s *GraphStateStore) UpsertConnection(conn entities.Connection) error {
	if !conn.ID.Valid() {
		return pkgerrors.NewValidationError("connection id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.putConnection(conn)
	s.version++
	return nil
}

// RemoveConnection drops a connection. Unknown IDs are ignored.
func (s *GraphStateStore) RemoveConnection(id valueobjects.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.connections[id]; !ok {
		return false
	}
	delete(s.connections, id)
	s.connOrder = removeID(s.connOrder, id)
	s.version++
	return true
}

// UpsertGroup inserts or renames a cloud
func (s *GraphStateStore) UpsertGroup(group entities.Group) error {
	if !group.ID.Valid() {
		return pkgerrors.NewValidationError("cloud id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.putGroup(group)
	s.version++
	return nil
}

// RemoveGroup drops a cloud and clears it from every note that referenced it.
// The notes themselves are kept.
func (s *GraphStateStore) RemoveGroup(id valueobjects.GroupID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.groups[id]
	if ok {
		delete(s.groups, id)
		s.groupOrder = removeID(s.groupOrder, id)
	}

	ref := valueobjects.GroupOf(id)
	for eid, e := range s.entities {
		if e.GroupID.Equals(ref) {
			e.GroupID = valueobjects.NoGroup()
			s.entities[eid] = e
			ok = true
		}
	}
	if ok {
		s.version++
	}
	return ok
}

// GetEntity returns the local copy of a note
func (s *GraphStateStore) GetEntity(id valueobjects.EntityID) (entities.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	return e, ok
}

// GetGroup returns a cloud by ID
func (s *GraphStateStore) GetGroup(id valueobjects.GroupID) (entities.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	return g, ok
}

// Entities returns the notes in insertion order
func (s *GraphStateStore) Entities() []entities.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id])
	}
	return out
}

// Groups returns the clouds in insertion order
func (s *GraphStateStore) Groups() []entities.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		out = append(out, s.groups[id])
	}
	return out
}

// Snapshot returns a deep copy of the whole graph
func (s *GraphStateStore) Snapshot() *aggregates.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &aggregates.Snapshot{
		Entities:    make([]entities.Entity, 0, len(s.order)),
		Connections: make([]entities.Connection, 0, len(s.connOrder)),
		Groups:      make([]entities.Group, 0, len(s.groupOrder)),
	}
	for _, id := range s.order {
		snap.Entities = append(snap.Entities, s.entities[id])
	}
	for _, id := range s.connOrder {
		snap.Connections = append(snap.Connections, s.connections[id])
	}
	for _, id := range s.groupOrder {
		snap.Groups = append(snap.Groups, s.groups[id])
	}
	return snap
}

// UpdatePosition records the live position of a note. It does not bump the
// version: positions move every tick.
func (s *GraphStateStore) UpdatePosition(id valueobjects.EntityID, pos valueobjects.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return false
	}
	e.Position = pos
	s.entities[id] = e
	return true
}

// SyncPositions records a batch of live positions, skipping unknown notes
func (s *GraphStateStore) SyncPositions(positions map[valueobjects.EntityID]valueobjects.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, pos := range positions {
		if e, ok := s.entities[id]; ok {
			e.Position = pos
			s.entities[id] = e
		}
	}
}

// HasConnection reports whether any connection links the two notes, in either direction
func (s *GraphStateStore) HasConnection(a, b valueobjects.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair := entities.PairOf(a, b)
	for _, c := range s.connections {
		if c.Pair() == pair {
			return true
		}
	}
	return false
}

// Version increases on every structural change
func (s *GraphStateStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *GraphStateStore) putEntity(e entities.Entity) {
	if _, ok := s.entities[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.entities[e.ID] = e
}

func (s *GraphStateStore) putConnection(c entities.Connection) {
	if _, ok := s.connections[c.ID]; !ok {
		s.connOrder = append(s.connOrder, c.ID)
	}
	s.connections[c.ID] = c
}

func (s *GraphStateStore) putGroup(g entities.Group) {
	if _, ok := s.groups[g.ID]; !ok {
		s.groupOrder = append(s.groupOrder, g.ID)
	}
	s.groups[g.ID] = g
}

func removeID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
