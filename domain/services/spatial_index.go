package services

import (
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// PositionSource supplies the positioned notes a proximity query scans.
// The state store satisfies it.
type PositionSource interface {
	Entities() []entities.Entity
}

// SpatialIndex answers proximity queries over the current note positions.
//
// It is a linear scan: O(n) per query, which is fine for graphs of tens to a few
// hundred notes. Larger graphs would want a uniform grid or k-d tree here.
type SpatialIndex struct {
	source PositionSource
	dims   int
}

// NewSpatialIndex creates an index over source using a 2D or 3D metric
func NewSpatialIndex(source PositionSource, dims int) *SpatialIndex {
	if dims != 2 {
		dims = 3
	}
	return &SpatialIndex{source: source, dims: dims}
}

// Dimensions returns the metric's dimensionality
func (s *SpatialIndex) Dimensions() int {
	return s.dims
}

// QueryNearby returns the first note, in source iteration order, whose distance
// to point is strictly below threshold. excludeID is skipped. The first match
// wins even when a later note is nearer.
func (s *SpatialIndex) QueryNearby(point valueobjects.Position, excludeID valueobjects.EntityID, threshold float64) (valueobjects.EntityID, bool) {
	return FirstWithin(s.source.Entities(), point, excludeID, threshold, s.dims)
}

// FirstWithin is the scan behind QueryNearby, usable on any note slice
func FirstWithin(population []entities.Entity, point valueobjects.Position, excludeID valueobjects.EntityID, threshold float64, dims int) (valueobjects.EntityID, bool) {
	for _, e := range population {
		if e.ID == excludeID {
			continue
		}
		if point.DistanceTo(e.Position, dims) < threshold {
			return e.ID, true
		}
	}
	return 0, false
}
