package remotesync

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// Field aliases used by the different revisions of the graph service
var (
	entityListKeys     = []string{"entities", "nodes"}
	connectionListKeys = []string{"connections", "edges", "links"}
	groupListKeys      = []string{"groups", "clouds"}

	titleKeys  = []string{"title", "label"}
	groupKeys  = []string{"group_id", "cloud_id"}
	sourceKeys = []string{"source_id", "source", "from"}
	targetKeys = []string{"target_id", "target", "to"}
	kindKeys   = []string{"kind", "type"}
)

// first returns the first alias present in obj
func first(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func parseDocument(body []byte) (gjson.Result, error) {
	if len(body) == 0 {
		return gjson.Result{}, fmt.Errorf("empty response body")
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("response is not valid JSON")
	}
	return gjson.ParseBytes(body), nil
}

// decodeSnapshot reads a graph payload. Missing collections are empty.
func decodeSnapshot(body []byte) (*aggregates.Snapshot, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("graph payload must be an object")
	}

	snapshot := &aggregates.Snapshot{
		Entities:    []entities.Entity{},
		Connections: []entities.Connection{},
		Groups:      []entities.Group{},
	}

	for _, item := range first(doc, entityListKeys).Array() {
		e, err := entityFrom(item)
		if err != nil {
			return nil, err
		}
		snapshot.Entities = append(snapshot.Entities, e)
	}
	for _, item := range first(doc, connectionListKeys).Array() {
		c, err := connectionFrom(item)
		if err != nil {
			return nil, err
		}
		snapshot.Connections = append(snapshot.Connections, c)
	}
	for _, item := range first(doc, groupListKeys).Array() {
		g, err := groupFrom(item)
		if err != nil {
			return nil, err
		}
		snapshot.Groups = append(snapshot.Groups, g)
	}
	return snapshot, nil
}

func decodeEntity(body []byte) (*entities.Entity, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	e, err := entityFrom(doc)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func decodeConnection(body []byte) (*entities.Connection, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	c, err := connectionFrom(doc)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeGroup(body []byte) (*entities.Group, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	g, err := groupFrom(doc)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func entityFrom(obj gjson.Result) (entities.Entity, error) {
	id := valueobjects.EntityID(obj.Get("id").Int())
	if !id.Valid() {
		return entities.Entity{}, fmt.Errorf("note without a valid id: %s", truncate(obj.Raw))
	}

	e := entities.Entity{
		ID:       id,
		Title:    first(obj, titleKeys).String(),
		Content:  obj.Get("content").String(),
		Color:    obj.Get("color").String(),
		GroupID:  groupRefFrom(first(obj, groupKeys)),
		Position: positionFrom(obj),
	}
	if size := obj.Get("size"); size.Exists() && size.Type == gjson.Number {
		e.Size = int(size.Int())
	} else {
		e.Size = entities.DerivedSize(e.Content)
	}
	return e, nil
}

// positionFrom accepts a nested {"position":{x,y,z}} or flat x/y/z fields.
// Missing or non-finite coordinates are zero.
func positionFrom(obj gjson.Result) valueobjects.Position {
	src := obj
	if p := obj.Get("position"); p.IsObject() {
		src = p
	}
	pos, err := valueobjects.NewPosition3D(
		finite(src.Get("x")),
		finite(src.Get("y")),
		finite(src.Get("z")),
	)
	if err != nil {
		return valueobjects.Origin
	}
	return pos
}

func finite(r gjson.Result) float64 {
	v := r.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func groupRefFrom(r gjson.Result) valueobjects.GroupRef {
	if !r.Exists() || r.Type == gjson.Null {
		return valueobjects.NoGroup()
	}
	return valueobjects.GroupOf(valueobjects.GroupID(r.Int()))
}

// endpointFrom reads an endpoint that is either an id or an object with an id
func endpointFrom(r gjson.Result) valueobjects.EntityID {
	if r.IsObject() {
		r = r.Get("id")
	}
	return valueobjects.EntityID(r.Int())
}

func connectionFrom(obj gjson.Result) (entities.Connection, error) {
	c := entities.Connection{
		ID:       valueobjects.ConnectionID(obj.Get("id").Int()),
		SourceID: endpointFrom(first(obj, sourceKeys)),
		TargetID: endpointFrom(first(obj, targetKeys)),
		Kind:     entities.ParseConnectionKind(first(obj, kindKeys).String()),
	}
	if !c.ID.Valid() {
		return entities.Connection{}, fmt.Errorf("connection without a valid id: %s", truncate(obj.Raw))
	}
	if !c.SourceID.Valid() || !c.TargetID.Valid() {
		return entities.Connection{}, fmt.Errorf("connection %d without endpoints", c.ID)
	}
	return c, nil
}

func groupFrom(obj gjson.Result) (entities.Group, error) {
	g := entities.Group{
		ID:   valueobjects.GroupID(obj.Get("id").Int()),
		Name: obj.Get("name").String(),
	}
	if !g.ID.Valid() {
		return entities.Group{}, fmt.Errorf("cloud without a valid id: %s", truncate(obj.Raw))
	}
	return g, nil
}

// errorMessage extracts the server's error text from a failure body
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	doc := gjson.ParseBytes(body)
	for _, k := range []string{"error", "message", "detail"} {
		if r := doc.Get(k); r.Type == gjson.String {
			return r.String()
		}
	}
	return ""
}

func truncate(s string) string {
	const limit = 120
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
