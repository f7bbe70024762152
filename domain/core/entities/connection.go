package entities

import (
	"strings"

	"notegraph/domain/core/valueobjects"
)

// ConnectionKind tells how a connection came to exist
type ConnectionKind string

const (
	// KindManual is drawn by the user or created by dragging notes together
	KindManual ConnectionKind = "manual"
	// KindInferred is derived by the server, e.g. from [[Title]] links in content
	KindInferred ConnectionKind = "inferred"
)

// ParseConnectionKind maps wire values onto a kind. The server's "text" kind
// is an inferred connection; anything unknown is treated as manual.
func ParseConnectionKind(s string) ConnectionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inferred", "text":
		return KindInferred
	default:
		return KindManual
	}
}

// Connection is an edge between two notes. It is rendered undirected but keeps
// the source/target the server stored.
type Connection struct {
	ID       valueobjects.ConnectionID
	SourceID valueobjects.EntityID
	TargetID valueobjects.EntityID
	Kind     ConnectionKind
}

// Pair is the unordered endpoint key of a connection
type Pair struct {
	Low  valueobjects.EntityID
	High valueobjects.EntityID
}

// PairOf builds the unordered key for two notes
func PairOf(a, b valueobjects.EntityID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Pair returns the unordered endpoint key
func (c Connection) Pair() Pair {
	return PairOf(c.SourceID, c.TargetID)
}

// Touches reports whether the connection has the note as an endpoint
func (c Connection) Touches(id valueobjects.EntityID) bool {
	return c.SourceID == id || c.TargetID == id
}
