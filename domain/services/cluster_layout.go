package services

import (
	"math"
	"sync/atomic"

	"notegraph/domain/core/valueobjects"
)

// Vector is a velocity or velocity increment
type Vector struct {
	X, Y, Z float64
}

// Particle is a note as seen by a force on one simulation tick
type Particle struct {
	ID       valueobjects.EntityID
	Group    valueobjects.GroupRef
	Position valueobjects.Position
}

// Impulse is a velocity increment for one particle
type Impulse struct {
	ID    valueobjects.EntityID
	Delta Vector
}

// ClusterLayout pulls every grouped note toward the centroid of its cloud.
// Centroids are taken from the positions of the current tick, so the pull
// follows the notes as they move.
type ClusterLayout struct {
	strength atomic.Uint64
}

// NewClusterLayout creates a cluster force with the given strength
func NewClusterLayout(strength float64) *ClusterLayout {
	l := &ClusterLayout{}
	l.SetStrength(strength)
	return l
}

// Strength returns the current strength
func (l *ClusterLayout) Strength() float64 {
	return math.Float64frombits(l.strength.Load())
}

// SetStrength changes the strength; safe to call while the simulation runs
func (l *ClusterLayout) SetStrength(strength float64) {
	l.strength.Store(math.Float64bits(strength))
}

// Apply computes one tick of the cluster force. Each grouped particle gets
// (centroid - position) * strength * alpha; ungrouped particles get nothing.
// The particles slice is only read.
func (l *ClusterLayout) Apply(alpha float64, particles []Particle) []Impulse {
	centroids := Centroids(particles)
	if len(centroids) == 0 {
		return nil
	}

	strength := l.Strength()
	impulses := make([]Impulse, 0, len(particles))
	for _, p := range particles {
		gid, ok := p.Group.ID()
		if !ok {
			continue
		}
		c, ok := centroids[gid]
		if !ok {
			continue
		}
		impulses = append(impulses, Impulse{
			ID: p.ID,
			Delta: Vector{
				X: (c.X() - p.Position.X()) * strength * alpha,
				Y: (c.Y() - p.Position.Y()) * strength * alpha,
				Z: (c.Z() - p.Position.Z()) * strength * alpha,
			},
		})
	}
	return impulses
}

// Centroids returns the mean position of each cloud's members.
// Clouds without members do not appear.
func Centroids(particles []Particle) map[valueobjects.GroupID]valueobjects.Position {
	type sum struct {
		x, y, z float64
		count   int
	}
	sums := make(map[valueobjects.GroupID]*sum)
	for _, p := range particles {
		gid, ok := p.Group.ID()
		if !ok {
			continue
		}
		s := sums[gid]
		if s == nil {
			s = &sum{}
			sums[gid] = s
		}
		s.x += p.Position.X()
		s.y += p.Position.Y()
		s.z += p.Position.Z()
		s.count++
	}

	centroids := make(map[valueobjects.GroupID]valueobjects.Position, len(sums))
	for gid, s := range sums {
		if s.count == 0 {
			continue
		}
		n := float64(s.count)
		pos, err := valueobjects.NewPosition3D(s.x/n, s.y/n, s.z/n)
		if err != nil {
			continue
		}
		centroids[gid] = pos
	}
	return centroids
}
