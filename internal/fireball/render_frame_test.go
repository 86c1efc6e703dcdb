package fireball

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRenderFrame_SizedToCapacity(t *testing.T) {
	p := NewPool(6, WithCooldown(0))
	if len(p.RenderFrame().Slots) != 6 {
		t.Fatalf("expected 6 slots before any step, got %d", len(p.RenderFrame().Slots))
	}
	p.EnqueueCount(2)
	runTicks(p, 2, straightAhead, open, nil)

	f := p.RenderFrame()
	if len(f.Slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(f.Slots))
	}
	if f.ActiveCount() != 2 {
		t.Fatalf("expected 2 active slots, got %d", f.ActiveCount())
	}
	for i, s := range f.Slots[2:] {
		if s != (RenderSlot{}) {
			t.Fatalf("slot %d should be empty, got %+v", i+2, s)
		}
		if s.Label() != "" {
			t.Fatalf("empty slot label should be blank, got %q", s.Label())
		}
	}
	if f.Slots[0].Label() != "fireball-1" {
		t.Fatalf("expected slot 0 to show fireball-1, got %q", f.Slots[0].Label())
	}
}

func TestRenderFrame_PublishIsIdempotent(t *testing.T) {
	p := NewPool(4, WithCooldown(0))
	p.EnqueueCount(3)
	p.Step(2.5*FixedTick, straightAhead, open, nil)

	first := append([]RenderSlot(nil), p.RenderFrame().Slots...)
	alpha := p.RenderFrame().Alpha
	p.Publish()
	p.Publish()

	if p.RenderFrame().Alpha != alpha {
		t.Fatalf("alpha changed on republish: %.4f → %.4f", alpha, p.RenderFrame().Alpha)
	}
	for i := range first {
		if first[i] != p.RenderFrame().Slots[i] {
			t.Fatalf("slot %d changed on republish", i)
		}
	}
}

func TestRenderFrame_InterpolatesBetweenTicks(t *testing.T) {
	p := NewPool(1, WithCooldown(0))
	p.EnqueueCount(1)
	p.Step(1.5*FixedTick, straightAhead, open, nil)

	f := p.RenderFrame()
	if math.Abs(f.Alpha-0.5) > 1e-9 {
		t.Fatalf("expected alpha 0.5, got %.6f", f.Alpha)
	}
	pr := p.Active()[0]
	s := f.Slots[0]
	want := (pr.Prev.Position[0] + pr.Position[0]) / 2
	if math.Abs(s.Position[0]-want) > 1e-9 {
		t.Fatalf("expected x halfway at %.4f, got %.4f", want, s.Position[0])
	}
	if s.Position[0] <= pr.Prev.Position[0] || s.Position[0] >= pr.Position[0] {
		t.Fatalf("interpolated x %.4f not strictly between %.4f and %.4f", s.Position[0], pr.Prev.Position[0], pr.Position[0])
	}
}

func TestRenderFrame_AlphaClamped(t *testing.T) {
	var f RenderFrame
	f.resize(1)
	live := []Projectile{{ID: 1, Position: mgl64.Vec3{2, 0, 0}, Prev: Pose{Position: mgl64.Vec3{0, 0, 0}}}}

	f.publish(live, 1)
	if f.Alpha >= 1 {
		t.Fatalf("alpha must stay below 1, got %v", f.Alpha)
	}
	f.publish(live, math.NaN())
	if f.Alpha != 0 {
		t.Fatalf("NaN alpha should publish as 0, got %v", f.Alpha)
	}
	f.publish(live, -3)
	if f.Alpha != 0 || f.Slots[0].Position[0] != 0 {
		t.Fatalf("negative alpha should clamp to the previous pose, got alpha=%v x=%v", f.Alpha, f.Slots[0].Position[0])
	}
}

func TestLerpStaysInRange(t *testing.T) {
	cases := []struct{ a, b, t float64 }{
		{0, 1, 0.5},
		{1, 0, 0.25},
		{0.1, 0.1 + 1e-17, 0.9999999},
		{-5, 1e9, 0.999},
		{3, 3, 0.7},
	}
	for _, c := range cases {
		v := lerp(c.a, c.b, c.t)
		lo, hi := math.Min(c.a, c.b), math.Max(c.a, c.b)
		if v < lo || v > hi {
			t.Errorf("lerp(%v, %v, %v) = %v outside [%v, %v]", c.a, c.b, c.t, v, lo, hi)
		}
	}
}

func TestRenderFrame_ShrinkReusesBacking(t *testing.T) {
	var f RenderFrame
	f.resize(8)
	f.Slots[5] = RenderSlot{ID: 9, Active: true}
	backing := &f.Slots[0]

	f.resize(4)
	if &f.Slots[0] != backing {
		t.Fatal("shrinking should reuse the slot backing array")
	}
	f.resize(8)
	if f.Slots[5] != (RenderSlot{}) {
		t.Fatalf("regrown slot should be cleared, got %+v", f.Slots[5])
	}
}
