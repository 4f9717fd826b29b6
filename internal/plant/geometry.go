package plant

import "math"

// Cylinder describes a cylindrical utility reservoir. Its cross-section
// is constant over the whole height.
type Cylinder struct {
	Radius   float64 `yaml:"radius" json:"radius"`
	MaxLevel float64 `yaml:"maxLevel" json:"maxLevel"`
}

// Area returns the constant cross-sectional area.
func (c Cylinder) Area() float64 {
	return math.Pi * c.Radius * c.Radius
}

// Volume returns the liquid volume at the given level.
func (c Cylinder) Volume(level float64) float64 {
	return c.Area() * level
}

// Cone describes a frusto-conical process tank: the section radius grows
// linearly from BaseRadius at the bottom to TopRadius at MaxLevel.
type Cone struct {
	BaseRadius float64 `yaml:"baseRadius" json:"baseRadius"`
	TopRadius  float64 `yaml:"topRadius" json:"topRadius"`
	MaxLevel   float64 `yaml:"maxLevel" json:"maxLevel"`
}

// RadiusAt returns the section radius at the given liquid level.
func (c Cone) RadiusAt(level float64) float64 {
	slope := (c.TopRadius - c.BaseRadius) / c.MaxLevel
	return c.BaseRadius + slope*level
}

// AreaAt returns the cross-sectional area at the given liquid level.
func (c Cone) AreaAt(level float64) float64 {
	r := c.RadiusAt(level)
	return math.Pi * r * r
}

// VolumeAt returns the liquid volume up to the given level, using the
// frustum formula V = pi*h/3 * (rb² + rb*r(h) + r(h)²).
func (c Cone) VolumeAt(level float64) float64 {
	r := c.RadiusAt(level)
	return math.Pi * level / 3.0 * (c.BaseRadius*c.BaseRadius + c.BaseRadius*r + r*r)
}
