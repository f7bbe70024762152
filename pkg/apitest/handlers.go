package apitest

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	maxTitleLength = 100
	maxCloudLength = 50
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (s *Server) noteJSON(n *note) map[string]interface{} {
	out := map[string]interface{}{
		"id":      n.ID,
		"content": n.Content,
		"color":   n.Color,
		"x":       n.X,
		"y":       n.Y,
		"z":       n.Z,
		"size":    n.size(),
	}
	if s.legacy {
		out["label"] = n.Title
		out["cloud_id"] = n.CloudID
	} else {
		out["title"] = n.Title
		out["group_id"] = n.CloudID
	}
	return out
}

func (s *Server) connectionJSON(c *connection) map[string]interface{} {
	if s.legacy {
		return map[string]interface{}{"id": c.ID, "from": c.SourceID, "to": c.TargetID, "type": c.Type}
	}
	return map[string]interface{}{"id": c.ID, "source_id": c.SourceID, "target_id": c.TargetID, "kind": c.Type}
}

func cloudJSON(c *cloud) map[string]interface{} {
	return map[string]interface{}{"id": c.ID, "name": c.Name}
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	notes := make([]interface{}, 0, len(s.graph.notes))
	for _, n := range s.graph.notes {
		notes = append(notes, s.noteJSON(n))
	}
	conns := make([]interface{}, 0, len(s.graph.connections))
	for _, c := range s.graph.connections {
		conns = append(conns, s.connectionJSON(c))
	}
	clouds := make([]interface{}, 0, len(s.graph.clouds))
	for _, c := range s.graph.clouds {
		clouds = append(clouds, cloudJSON(c))
	}
	s.mu.Unlock()

	if s.legacy {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"nodes": notes, "edges": conns, "clouds": clouds})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"entities": notes, "connections": conns, "groups": clouds})
}

func decodeBody(r *http.Request) (map[string]json.RawMessage, error) {
	body := map[string]json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var title string
	_ = json.Unmarshal(body["title"], &title)
	title = strings.TrimSpace(title)
	if title == "" {
		s.respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if len(title) > maxTitleLength {
		s.respondError(w, http.StatusBadRequest, "Title is too long")
		return
	}

	s.mu.Lock()
	if s.graph.noteByTitle(title) != nil {
		s.mu.Unlock()
		s.respondError(w, http.StatusBadRequest, "Note already exists")
		return
	}
	n := &note{ID: s.graph.id(), Title: title}
	s.graph.notes = append(s.graph.notes, n)
	out := s.noteJSON(n)
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "noteID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.graph.note(id)
	if n == nil {
		s.respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	updated := *n

	if raw, ok := body["color"]; ok {
		if err := json.Unmarshal(raw, &updated.Color); err != nil || !hexColor.MatchString(updated.Color) {
			s.respondError(w, http.StatusBadRequest, "Invalid color")
			return
		}
	}
	if raw, ok := body["group_id"]; ok {
		var cloudID *int64
		if err := json.Unmarshal(raw, &cloudID); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid cloud ID")
			return
		}
		if cloudID != nil && s.graph.cloud(*cloudID) == nil {
			s.respondError(w, http.StatusBadRequest, "Cloud not found")
			return
		}
		updated.CloudID = cloudID
	}
	for key, dst := range map[string]*float64{"x": &updated.X, "y": &updated.Y, "z": &updated.Z} {
		if raw, ok := body[key]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				s.respondError(w, http.StatusBadRequest, "Invalid coordinate "+key)
				return
			}
		}
	}
	_, contentChanged := body["content"]
	if contentChanged {
		if err := json.Unmarshal(body["content"], &updated.Content); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid content")
			return
		}
	}

	*n = updated
	if contentChanged {
		s.graph.relinkText(n)
	}
	s.respondJSON(w, http.StatusOK, s.noteJSON(n))
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var source, target int64
	_ = json.Unmarshal(body["source_id"], &source)
	_ = json.Unmarshal(body["target_id"], &target)
	if source == 0 && target == 0 {
		_ = json.Unmarshal(body["from"], &source)
		_ = json.Unmarshal(body["to"], &target)
	}
	if source == 0 || target == 0 {
		s.respondError(w, http.StatusBadRequest, "Source and Target IDs required")
		return
	}
	if source == target {
		s.respondError(w, http.StatusBadRequest, "Cannot connect a note to itself")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph.note(source) == nil || s.graph.note(target) == nil {
		s.respondError(w, http.StatusBadRequest, "Invalid connection endpoints")
		return
	}
	if s.graph.linked(source, target) {
		s.respondError(w, http.StatusConflict, "Connection already exists")
		return
	}
	c := s.graph.addConnection(source, target, "manual")
	s.respondJSON(w, http.StatusOK, s.connectionJSON(c))
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var id int64
	_ = json.Unmarshal(body["id"], &id)
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "ID required")
		return
	}

	s.mu.Lock()
	s.graph.removeConnection(id)
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) createCloud(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var name string
	_ = json.Unmarshal(body["name"], &name)
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxCloudLength {
		s.respondError(w, http.StatusBadRequest, "Cloud name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph.cloudByName(name) != nil {
		s.respondError(w, http.StatusConflict, "Cloud already exists")
		return
	}
	c := &cloud{ID: s.graph.id(), Name: name}
	s.graph.clouds = append(s.graph.clouds, c)
	s.respondJSON(w, http.StatusOK, cloudJSON(c))
}

func (s *Server) deleteCloud(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cloudID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid cloud ID")
		return
	}

	s.mu.Lock()
	removed := s.graph.removeCloud(id)
	s.mu.Unlock()

	if !removed {
		s.respondError(w, http.StatusNotFound, "Cloud not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
