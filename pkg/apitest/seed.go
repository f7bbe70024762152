package apitest

// SeedNote adds a note directly, bypassing the API
type SeedNote struct {
	Title   string
	Content string
	Color   string
	CloudID int64
	X, Y, Z float64
}

// AddNote stores a note and returns its id
func (s *Server) AddNote(n SeedNote) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &note{
		ID:      s.graph.id(),
		Title:   n.Title,
		Content: n.Content,
		Color:   n.Color,
		X:       n.X,
		Y:       n.Y,
		Z:       n.Z,
	}
	if n.CloudID > 0 {
		cloudID := n.CloudID
		stored.CloudID = &cloudID
	}
	s.graph.notes = append(s.graph.notes, stored)
	return stored.ID
}

// AddCloud stores a cloud and returns its id
func (s *Server) AddCloud(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &cloud{ID: s.graph.id(), Name: name}
	s.graph.clouds = append(s.graph.clouds, c)
	return c.ID
}

// AddConnection stores a connection and returns its id
func (s *Server) AddConnection(source, target int64, kind string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == "" {
		kind = "manual"
	}
	return s.graph.addConnection(source, target, kind).ID
}

// NoteCloud returns the cloud of a stored note
func (s *Server) NoteCloud(id int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.graph.note(id)
	if n == nil || n.CloudID == nil {
		return 0, false
	}
	return *n.CloudID, true
}

// NotePosition returns the stored coordinates of a note
func (s *Server) NotePosition(id int64) (x, y, z float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.graph.note(id)
	if n == nil {
		return 0, 0, 0, false
	}
	return n.X, n.Y, n.Z, true
}

// ConnectionCount returns the number of stored connections
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.graph.connections)
}
