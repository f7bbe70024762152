package aggregates

import (
	"errors"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// Snapshot is the full server-authoritative state at one point in time:
// the unit of synchronization between the graph service and the client.
type Snapshot struct {
	Entities    []entities.Entity
	Connections []entities.Connection
	Groups      []entities.Group
}

// Stats contains graph statistics shown by the CLI
type Stats struct {
	NodeCount      int
	EdgeCount      int
	CloudCount     int
	ComponentCount int
	Density        float64
}

// Clone returns a deep copy. Entities, connections and groups are plain values
// so copying the slices is sufficient.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	cp := &Snapshot{
		Entities:    make([]entities.Entity, len(s.Entities)),
		Connections: make([]entities.Connection, len(s.Connections)),
		Groups:      make([]entities.Group, len(s.Groups)),
	}
	copy(cp.Entities, s.Entities)
	copy(cp.Connections, s.Connections)
	copy(cp.Groups, s.Groups)
	return cp
}

// FindEntity returns the note with the given ID
func (s *Snapshot) FindEntity(id valueobjects.EntityID) (entities.Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return entities.Entity{}, false
}

// Validate ensures snapshot invariants: unique note IDs and connections whose
// endpoints exist.
func (s *Snapshot) Validate() error {
	seen := make(map[valueobjects.EntityID]bool, len(s.Entities))
	for _, e := range s.Entities {
		if !e.ID.Valid() {
			return errors.New("note without a valid id")
		}
		if seen[e.ID] {
			return errors.New("duplicate note id " + e.ID.String())
		}
		seen[e.ID] = true
	}
	for _, c := range s.Connections {
		if !seen[c.SourceID] {
			return errors.New("connection references non-existent source note")
		}
		if !seen[c.TargetID] {
			return errors.New("connection references non-existent target note")
		}
	}
	return nil
}

// Stats computes counts, connected components and edge density
func (s *Snapshot) Stats() Stats {
	n := len(s.Entities)
	stats := Stats{
		NodeCount:      n,
		EdgeCount:      len(s.Connections),
		CloudCount:     len(s.Groups),
		ComponentCount: len(s.Components()),
	}
	if n > 1 {
		stats.Density = 2 * float64(len(s.Connections)) / float64(n*(n-1))
	}
	return stats
}

// Components groups notes that are connected, ignoring connection direction
func (s *Snapshot) Components() [][]valueobjects.EntityID {
	adjacency := make(map[valueobjects.EntityID][]valueobjects.EntityID, len(s.Entities))
	for _, c := range s.Connections {
		adjacency[c.SourceID] = append(adjacency[c.SourceID], c.TargetID)
		adjacency[c.TargetID] = append(adjacency[c.TargetID], c.SourceID)
	}

	visited := make(map[valueobjects.EntityID]bool, len(s.Entities))
	var components [][]valueobjects.EntityID
	for _, e := range s.Entities {
		if !visited[e.ID] {
			components = append(components, dfs(e.ID, adjacency, visited))
		}
	}
	return components
}

func dfs(id valueobjects.EntityID, adjacency map[valueobjects.EntityID][]valueobjects.EntityID, visited map[valueobjects.EntityID]bool) []valueobjects.EntityID {
	component := []valueobjects.EntityID{id}
	visited[id] = true

	for _, next := range adjacency[id] {
		if !visited[next] {
			component = append(component, dfs(next, adjacency, visited)...)
		}
	}
	return component
}
