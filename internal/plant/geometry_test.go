package plant

import (
	"math"
	"testing"
)

func TestCylinderArea(t *testing.T) {
	c := Cylinder{Radius: 1.75, MaxLevel: 3.0}
	want := math.Pi * 1.75 * 1.75
	if got := c.Area(); math.Abs(got-want) > 1e-12 {
		t.Errorf("area: got %.6f, want %.6f", got, want)
	}
	if got := c.Volume(2.0); math.Abs(got-2*want) > 1e-12 {
		t.Errorf("volume at 2.0: got %.6f, want %.6f", got, 2*want)
	}
}

func TestConeRadiusAt(t *testing.T) {
	cone := Cone{BaseRadius: 0.75, TopRadius: 1.25, MaxLevel: 3.0}

	tests := []struct {
		level float64
		want  float64
	}{
		{0.0, 0.75},
		{1.5, 1.0},
		{3.0, 1.25},
	}
	for _, tt := range tests {
		if got := cone.RadiusAt(tt.level); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("radius at %.1f: got %.4f, want %.4f", tt.level, got, tt.want)
		}
	}
}

func TestConeAreaAt(t *testing.T) {
	cone := Cone{BaseRadius: 0.75, TopRadius: 1.25, MaxLevel: 3.0}
	want := math.Pi // radius 1.0 at mid-height
	if got := cone.AreaAt(1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("area at 1.5: got %.6f, want %.6f", got, want)
	}
}

func TestConeVolumeAt(t *testing.T) {
	cone := Cone{BaseRadius: 0.75, TopRadius: 1.25, MaxLevel: 3.0}

	if got := cone.VolumeAt(0); got != 0 {
		t.Errorf("volume at empty: got %.6f, want 0", got)
	}

	// Full frustum: V = pi*h/3 * (rb^2 + rb*rt + rt^2).
	want := math.Pi * 3.0 / 3.0 * (0.75*0.75 + 0.75*1.25 + 1.25*1.25)
	if got := cone.VolumeAt(3.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("volume at full: got %.6f, want %.6f", got, want)
	}

	// A degenerate cone with equal radii is a cylinder.
	cyl := Cone{BaseRadius: 1.0, TopRadius: 1.0, MaxLevel: 3.0}
	if got := cyl.VolumeAt(2.0); math.Abs(got-2.0*math.Pi) > 1e-12 {
		t.Errorf("cylinder-cone volume: got %.6f, want %.6f", got, 2.0*math.Pi)
	}
}

func TestConeVolumeMonotonic(t *testing.T) {
	cone := Cone{BaseRadius: 0.75, TopRadius: 1.25, MaxLevel: 3.0}
	prev := 0.0
	for h := 0.1; h <= 3.0; h += 0.1 {
		v := cone.VolumeAt(h)
		if v <= prev {
			t.Fatalf("volume not increasing at level %.1f: %.6f <= %.6f", h, v, prev)
		}
		prev = v
	}
}
