package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HeightField is a rolling terrain. Amplitude 0 gives flat ground at Base.
type HeightField struct {
	Base       float64 // m
	Amplitude  float64 // m
	Wavelength float64 // m between crests
}

// Height returns the ground elevation under (x, z).
func (h HeightField) Height(x, z float64) float64 {
	if h.Amplitude == 0 || h.Wavelength <= 0 {
		return h.Base
	}
	k := 2 * math.Pi / h.Wavelength
	return h.Base + h.Amplitude*math.Sin(k*x)*math.Cos(k*z)
}

// Box is an axis-aligned solid obstacle.
type Box struct {
	Min, Max mgl64.Vec3
}

// Pillar returns a box of the given footprint centred on (x, z) rising from
// base to base+height.
func Pillar(x, z, halfWidth, base, height float64) Box {
	return Box{
		Min: mgl64.Vec3{x - halfWidth, base, z - halfWidth},
		Max: mgl64.Vec3{x + halfWidth, base + height, z + halfWidth},
	}
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Raycast returns the entry distance of the ray origin + t*dir into the box for
// t in [0, maxDistance]. An origin inside the box hits at 0.
func (b Box) Raycast(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool) {
	tMin, tMax := 0.0, maxDistance
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t0 := (b.Min[i] - origin[i]) * inv
		t1 := (b.Max[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// Arena is the collision and terrain oracle used by the viewer, the headless
// report and the tests. It counts queries so callers can watch the hot path.
type Arena struct {
	Terrain HeightField
	Boxes   []Box

	casts   uint64
	samples uint64
}

// NewArena builds an arena over terrain with the given obstacles.
func NewArena(terrain HeightField, boxes ...Box) *Arena {
	return &Arena{Terrain: terrain, Boxes: boxes}
}

// Flat returns an obstacle-free arena with level ground at height.
func Flat(height float64) *Arena {
	return NewArena(HeightField{Base: height})
}

// Demo is the arena the viewer opens with: gentle hills and a ring of pillars
// around the launch point.
func Demo() *Arena {
	a := NewArena(HeightField{Base: 0, Amplitude: 0.6, Wavelength: 18})
	for i := 0; i < 8; i++ {
		ang := float64(i) * math.Pi / 4
		x := math.Cos(ang) * 16
		z := math.Sin(ang) * 16
		a.Boxes = append(a.Boxes, Pillar(x, z, 1.2, -1, 5))
	}
	a.Boxes = append(a.Boxes, Box{Min: mgl64.Vec3{24, -1, -10}, Max: mgl64.Vec3{25, 3, 10}})
	return a
}

// CastSolidHit implements fireball.World.
func (a *Arena) CastSolidHit(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool) {
	a.casts++
	best, found := maxDistance, false
	for i := range a.Boxes {
		if t, ok := a.Boxes[i].Raycast(origin, dir, best); ok && (!found || t < best) {
			best, found = t, true
		}
	}
	return best, found
}

// TerrainHeight implements fireball.World.
func (a *Arena) TerrainHeight(x, z float64) float64 {
	a.samples++
	return a.Terrain.Height(x, z)
}

// Queries returns how many casts and terrain samples have been answered.
func (a *Arena) Queries() (casts, samples uint64) {
	return a.casts, a.samples
}
