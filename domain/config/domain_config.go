package config

import (
	"fmt"
	"math"
)

// Render modes
const (
	ModeThreeD = "3d"
	ModeTwoD   = "2d"
)

// DomainConfig holds the tunable interaction and layout parameters.
// Thresholds are in renderer units, which differ between the 2D and 3D views,
// so each mode has its own preset.
type DomainConfig struct {
	// Space
	Dimensions int

	// Drag-to-connect
	ProximityThreshold   float64
	NudgeOffset          float64
	SkipKnownConnections bool

	// Forces
	ClusterStrength float64
	ChargeStrength  float64
	LinkDistance    float64

	// Simulation annealing
	VelocityDecay   float64
	AlphaDecay      float64
	AlphaMin        float64
	DragAlphaTarget float64
}

// DefaultDomainConfig returns the default domain configuration (3D view)
func DefaultDomainConfig() *DomainConfig {
	return ThreeDDomainConfig()
}

// ThreeDDomainConfig returns the configuration for the 3D force-graph view
func ThreeDDomainConfig() *DomainConfig {
	return &DomainConfig{
		Dimensions: 3,

		ProximityThreshold:   20,
		NudgeOffset:          60,
		SkipKnownConnections: false,

		ClusterStrength: 0.2,
		ChargeStrength:  -100,
		LinkDistance:    30,

		VelocityDecay: 0.4,
		// Reaches AlphaMin after ~300 ticks
		AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
		AlphaMin:        0.001,
		DragAlphaTarget: 0.3,
	}
}

// TwoDDomainConfig returns the configuration for the 2D network view
func TwoDDomainConfig() *DomainConfig {
	cfg := ThreeDDomainConfig()
	cfg.Dimensions = 2
	cfg.ProximityThreshold = 50
	cfg.LinkDistance = 100
	return cfg
}

// LoadDomainConfig returns the preset for a render mode
func LoadDomainConfig(mode string) *DomainConfig {
	switch mode {
	case ModeTwoD:
		return TwoDDomainConfig()
	default:
		return ThreeDDomainConfig()
	}
}

// Clone returns an independent copy
func (c *DomainConfig) Clone() *DomainConfig {
	cp := *c
	return &cp
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.Dimensions != 2 && c.Dimensions != 3 {
		return fmt.Errorf("dimensions must be 2 or 3, got %d", c.Dimensions)
	}
	if c.ProximityThreshold <= 0 {
		return fmt.Errorf("proximity threshold must be positive")
	}
	if c.NudgeOffset < 0 {
		return fmt.Errorf("nudge offset cannot be negative")
	}
	if c.ClusterStrength < 0 {
		return fmt.Errorf("cluster strength cannot be negative")
	}
	if c.VelocityDecay < 0 || c.VelocityDecay > 1 {
		return fmt.Errorf("velocity decay must be within [0,1]")
	}
	if c.AlphaDecay < 0 || c.AlphaDecay > 1 {
		return fmt.Errorf("alpha decay must be within [0,1]")
	}
	return nil
}
