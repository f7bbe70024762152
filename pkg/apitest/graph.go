package apitest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var linkPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

type note struct {
	ID      int64
	Title   string
	Content string
	Color   string
	CloudID *int64
	X, Y, Z float64
}

type connection struct {
	ID       int64
	SourceID int64
	TargetID int64
	Type     string
}

type cloud struct {
	ID   int64
	Name string
}

// graph is the server-side state. Callers hold Server.mu.
type graph struct {
	nextID      int64
	notes       []*note
	connections []*connection
	clouds      []*cloud
}

func newGraph() *graph {
	return &graph{}
}

func (g *graph) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *graph) note(id int64) *note {
	for _, n := range g.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (g *graph) noteByTitle(title string) *note {
	for _, n := range g.notes {
		if n.Title == title {
			return n
		}
	}
	return nil
}

func (g *graph) cloud(id int64) *cloud {
	for _, c := range g.clouds {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (g *graph) cloudByName(name string) *cloud {
	for _, c := range g.clouds {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// linked reports whether any connection joins a and b, in either direction
func (g *graph) linked(a, b int64) bool {
	for _, c := range g.connections {
		if (c.SourceID == a && c.TargetID == b) || (c.SourceID == b && c.TargetID == a) {
			return true
		}
	}
	return false
}

func (g *graph) addConnection(source, target int64, kind string) *connection {
	c := &connection{ID: g.id(), SourceID: source, TargetID: target, Type: kind}
	g.connections = append(g.connections, c)
	return c
}

func (g *graph) removeConnection(id int64) bool {
	for i, c := range g.connections {
		if c.ID == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			return true
		}
	}
	return false
}

// removeCloud deletes a cloud and clears it from its notes
func (g *graph) removeCloud(id int64) bool {
	for i, c := range g.clouds {
		if c.ID == id {
			g.clouds = append(g.clouds[:i], g.clouds[i+1:]...)
			for _, n := range g.notes {
				if n.CloudID != nil && *n.CloudID == id {
					n.CloudID = nil
				}
			}
			return true
		}
	}
	return false
}

// relinkText rebuilds the text connections of a note from the [[Title]]
// references in its content. A reference to a missing title creates a stub
// note with that title.
func (g *graph) relinkText(n *note) {
	kept := g.connections[:0]
	for _, c := range g.connections {
		if !(c.SourceID == n.ID && c.Type == "text") {
			kept = append(kept, c)
		}
	}
	g.connections = kept

	for _, m := range linkPattern.FindAllStringSubmatch(n.Content, -1) {
		title := strings.TrimSpace(m[1])
		if title == "" {
			continue
		}
		target := g.noteByTitle(title)
		if target == nil {
			target = &note{ID: g.id(), Title: title}
			g.notes = append(g.notes, target)
		}
		if target.ID == n.ID || g.linked(n.ID, target.ID) {
			continue
		}
		g.addConnection(n.ID, target.ID, "text")
	}
}

func (n *note) size() int {
	return utf8.RuneCountInString(n.Content)
}
