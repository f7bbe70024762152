package entities

import "notegraph/domain/core/valueobjects"

// Group is a named cloud used to cluster notes visually
type Group struct {
	ID   valueobjects.GroupID
	Name string
}
