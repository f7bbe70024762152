package render

import (
	"math"
	"sync"

	"notegraph/application/ports"
	"notegraph/domain/config"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
)

type body struct {
	id    valueobjects.EntityID
	group valueobjects.GroupRef

	x, y, z    float64
	vx, vy, vz float64

	pinned bool
}

type spring struct {
	source, target *body
	strength       float64
	bias           float64
}

type namedForce struct {
	name string
	fn   ports.ForceFunc
}

// Simulation is a velocity-Verlet force simulation with alpha annealing:
// many-body charge, link springs, centering and named custom forces. The z
// axis is frozen at zero in two dimensions.
type Simulation struct {
	mu sync.Mutex

	dims         int
	charge       float64
	linkDistance float64
	decay        float64
	alphaDecay   float64
	alphaMin     float64
	dragTarget   float64

	alpha       float64
	alphaTarget float64

	bodies  []*body
	byID    map[valueobjects.EntityID]*body
	springs []spring
	forces  []namedForce
}

// NewSimulation creates an empty simulation using the given tunables
func NewSimulation(cfg *config.DomainConfig) *Simulation {
	s := &Simulation{
		byID:  make(map[valueobjects.EntityID]*body),
		alpha: 1,
	}
	s.Configure(cfg)
	return s
}

// Configure updates the physical parameters
func (s *Simulation) Configure(cfg *config.DomainConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dims = cfg.Dimensions
	if s.dims != 2 {
		s.dims = 3
	}
	s.charge = cfg.ChargeStrength
	s.linkDistance = cfg.LinkDistance
	s.decay = cfg.VelocityDecay
	s.alphaDecay = cfg.AlphaDecay
	s.alphaMin = cfg.AlphaMin
	s.dragTarget = cfg.DragAlphaTarget
}

// Dimensions returns 2 or 3
func (s *Simulation) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dims
}

// Load replaces the bodies and springs. Bodies already in the simulation keep
// their live position and velocity; new ones start at their stored position,
// or on a phyllotaxis spiral when they have none. The simulation is reheated.
func (s *Simulation) Load(snapshot *aggregates.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bodies := make([]*body, 0, len(snapshot.Entities))
	byID := make(map[valueobjects.EntityID]*body, len(snapshot.Entities))
	for i, e := range snapshot.Entities {
		b, ok := s.byID[e.ID]
		if !ok {
			b = &body{id: e.ID}
			if e.Position.Equals(valueobjects.Origin) {
				b.x, b.y, b.z = s.spiral(i)
			} else {
				b.x, b.y, b.z = e.Position.X(), e.Position.Y(), e.Position.Z()
			}
			if s.dims == 2 {
				b.z = 0
			}
		}
		b.group = e.GroupID
		bodies = append(bodies, b)
		byID[e.ID] = b
	}

	degree := make(map[valueobjects.EntityID]int)
	for _, c := range snapshot.Connections {
		if byID[c.SourceID] != nil && byID[c.TargetID] != nil {
			degree[c.SourceID]++
			degree[c.TargetID]++
		}
	}
	springs := make([]spring, 0, len(snapshot.Connections))
	for _, c := range snapshot.Connections {
		src, dst := byID[c.SourceID], byID[c.TargetID]
		if src == nil || dst == nil || src == dst {
			continue
		}
		ds, dt := float64(degree[c.SourceID]), float64(degree[c.TargetID])
		springs = append(springs, spring{
			source:   src,
			target:   dst,
			strength: 1 / math.Min(ds, dt),
			bias:     ds / (ds + dt),
		})
	}

	s.bodies = bodies
	s.byID = byID
	s.springs = springs
	s.alpha = 1
}

// spiral places the i-th new body like d3 does
func (s *Simulation) spiral(i int) (float64, float64, float64) {
	const initialRadius = 10
	angle := float64(i) * math.Pi * (3 - math.Sqrt(5))
	r := initialRadius * math.Sqrt(0.5+float64(i))
	if s.dims == 2 {
		return r * math.Cos(angle), r * math.Sin(angle), 0
	}
	// Spread over a sphere-ish volume in 3D
	r = initialRadius * math.Cbrt(0.5+float64(i))
	roll := float64(i) * math.Pi * 20 / (9 + math.Sqrt(221))
	return r * math.Sin(angle) * math.Cos(roll), r * math.Cos(angle), r * math.Sin(angle) * math.Sin(roll)
}

// SetForce registers a named custom force, replacing one with the same name.
// A nil function removes it.
func (s *Simulation) SetForce(name string, fn ports.ForceFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.forces {
		if f.name == name {
			if fn == nil {
				s.forces = append(s.forces[:i], s.forces[i+1:]...)
			} else {
				s.forces[i].fn = fn
			}
			return
		}
	}
	if fn != nil {
		s.forces = append(s.forces, namedForce{name: name, fn: fn})
	}
}

// Step advances the simulation by one tick and returns the new positions and alpha
func (s *Simulation) Step() (map[valueobjects.EntityID]valueobjects.Position, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	alpha := s.alpha

	s.applyCharge(alpha)
	s.applySprings(alpha)
	s.applyCustom(alpha)
	s.integrate()
	s.center()

	return s.positions(), alpha
}

// Alpha returns the current temperature
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Settled reports whether alpha has fallen below the minimum
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha < s.alphaMin
}

// Pin fixes a body at pos and warms the simulation, as during a drag
func (s *Simulation) Pin(id valueobjects.EntityID, pos valueobjects.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return false
	}
	s.place(b, pos)
	b.pinned = true
	s.alphaTarget = s.dragTarget
	if s.alpha < s.dragTarget {
		s.alpha = s.dragTarget
	}
	return true
}

// Release frees a pinned body and lets the simulation cool
func (s *Simulation) Release(id valueobjects.EntityID) (valueobjects.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return valueobjects.Position{}, false
	}
	b.pinned = false
	s.alphaTarget = 0
	return b.position(), true
}

// Place moves a body and stops it
func (s *Simulation) Place(id valueobjects.EntityID, pos valueobjects.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return false
	}
	s.place(b, pos)
	return true
}

func (s *Simulation) place(b *body, pos valueobjects.Position) {
	b.x, b.y, b.z = pos.X(), pos.Y(), pos.Z()
	if s.dims == 2 {
		b.z = 0
	}
	b.vx, b.vy, b.vz = 0, 0, 0
}

// Positions returns the current position of every body
func (s *Simulation) Positions() map[valueobjects.EntityID]valueobjects.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions()
}

// Has reports whether the body exists
func (s *Simulation) Has(id valueobjects.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

func (s *Simulation) positions() map[valueobjects.EntityID]valueobjects.Position {
	out := make(map[valueobjects.EntityID]valueobjects.Position, len(s.bodies))
	for _, b := range s.bodies {
		out[b.id] = b.position()
	}
	return out
}

func (b *body) position() valueobjects.Position {
	return valueobjects.MustPosition(b.x, b.y, b.z)
}

// applyCharge is the pairwise many-body force, O(n²)
func (s *Simulation) applyCharge(alpha float64) {
	if s.charge == 0 {
		return
	}
	for i, a := range s.bodies {
		for _, b := range s.bodies[i+1:] {
			dx, dy, dz := b.x-a.x, b.y-a.y, b.z-a.z
			l := dx*dx + dy*dy + dz*dz
			if l < 1e-6 {
				// Coincident bodies: separate them along a fixed axis
				dx, l = 1e-3, 1e-6
			}
			w := s.charge * alpha / l
			a.vx += dx * w
			a.vy += dy * w
			a.vz += dz * w
			b.vx -= dx * w
			b.vy -= dy * w
			b.vz -= dz * w
		}
	}
}

func (s *Simulation) applySprings(alpha float64) {
	for _, sp := range s.springs {
		src, dst := sp.source, sp.target
		dx := dst.x + dst.vx - src.x - src.vx
		dy := dst.y + dst.vy - src.y - src.vy
		dz := dst.z + dst.vz - src.z - src.vz
		l := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if l < 1e-9 {
			continue
		}
		k := (l - s.linkDistance) / l * alpha * sp.strength
		dx, dy, dz = dx*k, dy*k, dz*k

		dst.vx -= dx * sp.bias
		dst.vy -= dy * sp.bias
		dst.vz -= dz * sp.bias
		src.vx += dx * (1 - sp.bias)
		src.vy += dy * (1 - sp.bias)
		src.vz += dz * (1 - sp.bias)
	}
}

// applyCustom runs the named forces on a snapshot of this tick's positions
func (s *Simulation) applyCustom(alpha float64) {
	if len(s.forces) == 0 {
		return
	}
	particles := make([]services.Particle, len(s.bodies))
	for i, b := range s.bodies {
		particles[i] = services.Particle{ID: b.id, Group: b.group, Position: b.position()}
	}
	for _, f := range s.forces {
		for _, imp := range f.fn(alpha, particles) {
			if b, ok := s.byID[imp.ID]; ok {
				b.vx += imp.Delta.X
				b.vy += imp.Delta.Y
				b.vz += imp.Delta.Z
			}
		}
	}
}

func (s *Simulation) integrate() {
	keep := 1 - s.decay
	for _, b := range s.bodies {
		if b.pinned {
			b.vx, b.vy, b.vz = 0, 0, 0
			continue
		}
		b.vx *= keep
		b.vy *= keep
		b.vz *= keep
		b.x += b.vx
		b.y += b.vy
		if s.dims == 3 {
			b.z += b.vz
		} else {
			b.vz, b.z = 0, 0
		}
		if !finite(b.x) || !finite(b.y) || !finite(b.z) {
			b.x, b.y, b.z, b.vx, b.vy, b.vz = 0, 0, 0, 0, 0, 0
		}
	}
}

// center shifts free bodies so the mean of all positions is the origin
func (s *Simulation) center() {
	var free int
	var sx, sy, sz float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
		sz += b.z
		if !b.pinned {
			free++
		}
	}
	if free == 0 || free != len(s.bodies) {
		// A pinned body must not drift; skip centering while dragging
		return
	}
	n := float64(len(s.bodies))
	sx, sy, sz = sx/n, sy/n, sz/n
	for _, b := range s.bodies {
		b.x -= sx
		b.y -= sy
		b.z -= sz
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
