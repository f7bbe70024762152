package valueobjects

import (
	"fmt"
	"math"

	pkgerrors "notegraph/pkg/errors"
)

// Position is a value object representing note coordinates in 2D/3D space
type Position struct {
	x float64
	y float64
	z float64 // 0 for the 2D renderer
}

// Origin is the zero position
var Origin = Position{}

// NewPosition2D creates a 2D position with validation
func NewPosition2D(x, y float64) (Position, error) {
	return NewPosition3D(x, y, 0)
}

// NewPosition3D creates a 3D position with validation
func NewPosition3D(x, y, z float64) (Position, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) || !isValidCoordinate(z) {
		return Position{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Position{x: x, y: y, z: z}, nil
}

// MustPosition builds a position from literals known to be finite.
// It panics on NaN or infinite input.
func MustPosition(x, y, z float64) Position {
	p, err := NewPosition3D(x, y, z)
	if err != nil {
		panic(err)
	}
	return p
}

// X returns the X coordinate
func (p Position) X() float64 {
	return p.x
}

// Y returns the Y coordinate
func (p Position) Y() float64 {
	return p.y
}

// Z returns the Z coordinate
func (p Position) Z() float64 {
	return p.z
}

// Is3D checks if this position leaves the z=0 plane
func (p Position) Is3D() bool {
	return p.z != 0
}

// DistanceTo calculates the Euclidean distance to another position.
// With dims == 2 the z axis is ignored.
func (p Position) DistanceTo(other Position, dims int) float64 {
	dx := p.x - other.x
	dy := p.y - other.y
	if dims == 2 {
		return math.Sqrt(dx*dx + dy*dy)
	}
	dz := p.z - other.z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.x-other.x) < epsilon &&
		math.Abs(p.y-other.y) < epsilon &&
		math.Abs(p.z-other.z) < epsilon
}

// Translate moves the position by the given offsets
func (p Position) Translate(dx, dy, dz float64) (Position, error) {
	return NewPosition3D(p.x+dx, p.y+dy, p.z+dz)
}

// Sub returns the component-wise difference p - other
func (p Position) Sub(other Position) Position {
	return Position{x: p.x - other.x, y: p.y - other.y, z: p.z - other.z}
}

// Scale multiplies every component by f
func (p Position) Scale(f float64) Position {
	return Position{x: p.x * f, y: p.y * f, z: p.z * f}
}

// Midpoint calculates the midpoint between two positions
func (p Position) Midpoint(other Position) Position {
	return Position{
		x: (p.x + other.x) / 2,
		y: (p.y + other.y) / 2,
		z: (p.z + other.z) / 2,
	}
}

// Flatten projects the position onto the z=0 plane
func (p Position) Flatten() Position {
	return Position{x: p.x, y: p.y}
}

// String implements fmt.Stringer
func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.x, p.y, p.z)
}

// isValidCoordinate checks if a coordinate is a valid finite number
func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
