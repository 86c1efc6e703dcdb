package fireball

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RenderSlot is the interpolated view of one projectile. Inactive slots have
// ID 0 and Active false.
type RenderSlot struct {
	ID        uint64
	Active    bool
	Phase     Phase
	Position  mgl64.Vec3
	Scale     float64
	Intensity float64
	RotationY float64
}

// Label is the display form of the slot's projectile id, empty when inactive.
func (s RenderSlot) Label() string { return DisplayID(s.ID) }

// RenderFrame is the snapshot handed to the presentation layer. Slots always has
// exactly one entry per unit of pool capacity and is rewritten in place.
type RenderFrame struct {
	Alpha float64 // fraction of the current tick elapsed, in [0, 1)
	Slots []RenderSlot
}

func (f *RenderFrame) resize(n int) {
	if cap(f.Slots) >= n {
		f.Slots = f.Slots[:n]
	} else {
		f.Slots = make([]RenderSlot, n)
	}
	for i := range f.Slots {
		f.Slots[i] = RenderSlot{}
	}
}

// ActiveCount returns the number of occupied slots.
func (f *RenderFrame) ActiveCount() int {
	n := 0
	for i := range f.Slots {
		if f.Slots[i].Active {
			n++
		}
	}
	return n
}

func (f *RenderFrame) publish(live []Projectile, alpha float64) {
	if alpha < 0 || math.IsNaN(alpha) {
		alpha = 0
	}
	if alpha >= 1 {
		alpha = math.Nextafter(1, 0)
	}
	f.Alpha = alpha

	n := min(len(live), len(f.Slots))
	for i := 0; i < n; i++ {
		p := &live[i]
		s := &f.Slots[i]
		s.ID = p.ID
		s.Active = true
		s.Phase = p.Phase
		s.Position = mgl64.Vec3{
			lerp(p.Prev.Position[0], p.Position[0], alpha),
			lerp(p.Prev.Position[1], p.Position[1], alpha),
			lerp(p.Prev.Position[2], p.Position[2], alpha),
		}
		s.Scale = lerp(p.Prev.Scale, p.Scale, alpha)
		s.Intensity = lerp(p.Prev.Intensity, p.Intensity, alpha)
		s.RotationY = lerp(p.Prev.RotationY, p.RotationY, alpha)
	}
	for i := n; i < len(f.Slots); i++ {
		f.Slots[i] = RenderSlot{}
	}
}

// lerp blends a toward b and never leaves [min(a,b), max(a,b)].
func lerp(a, b, t float64) float64 {
	v := a + (b-a)*t
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(v, lo), hi)
}
