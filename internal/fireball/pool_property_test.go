package fireball

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"pgregory.net/rapid"
)

type observed struct {
	phase  Phase
	travel float64
}

// checkFrame verifies every active slot sits between its projectile's previous
// and current pose.
func checkFrame(t *rapid.T, p *Pool) {
	f := p.RenderFrame()
	if len(f.Slots) != p.Capacity() {
		t.Fatalf("frame has %d slots for capacity %d", len(f.Slots), p.Capacity())
	}
	if f.Alpha < 0 || f.Alpha >= 1 {
		t.Fatalf("alpha %v outside [0, 1)", f.Alpha)
	}
	if f.ActiveCount() != p.Len() {
		t.Fatalf("frame shows %d active, pool has %d", f.ActiveCount(), p.Len())
	}
	for i, pr := range p.Active() {
		s := f.Slots[i]
		if s.ID != pr.ID {
			t.Fatalf("slot %d shows id %d, expected %d", i, s.ID, pr.ID)
		}
		for axis := 0; axis < 3; axis++ {
			lo, hi := min(pr.Prev.Position[axis], pr.Position[axis]), max(pr.Prev.Position[axis], pr.Position[axis])
			if s.Position[axis] < lo || s.Position[axis] > hi {
				t.Fatalf("%s axis %d: %v outside [%v, %v]", pr.Label(), axis, s.Position[axis], lo, hi)
			}
		}
		lo, hi := min(pr.Prev.Scale, pr.Scale), max(pr.Prev.Scale, pr.Scale)
		if s.Scale < lo || s.Scale > hi {
			t.Fatalf("%s scale %v outside [%v, %v]", pr.Label(), s.Scale, lo, hi)
		}
	}
}

func TestPoolProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(0, 12).Draw(t, "capacity")
		policy := rapid.SampledFrom([]SpawnPolicy{PolicyReject, PolicyEvictOldest}).Draw(t, "policy")
		cooldown := rapid.Float64Range(0, 0.2).Draw(t, "cooldown")
		wallX := rapid.Float64Range(2, 40).Draw(t, "wallX")

		p := NewPool(capacity, WithPolicy(policy), WithCooldown(cooldown))
		w := wallAt(wallX)
		build := func() SpawnRequest {
			return SpawnRequest{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{1, 0.2, 0.1}}
		}

		seen := map[uint64]observed{}
		after := func(pr *Projectile) {
			if pr.Dead {
				t.Fatalf("%s observed dead", pr.Label())
			}
			prev, ok := seen[pr.ID]
			if ok {
				if prev.phase != PhaseActive && pr.Phase != prev.phase {
					t.Fatalf("%s left terminal phase %s for %s", pr.Label(), prev.phase, pr.Phase)
				}
				if pr.TravelDistance < prev.travel {
					t.Fatalf("%s travel decreased %v → %v", pr.Label(), prev.travel, pr.TravelDistance)
				}
			}
			seen[pr.ID] = observed{phase: pr.Phase, travel: pr.TravelDistance}
		}

		var lastTick uint64
		frames := rapid.IntRange(1, 80).Draw(t, "frames")
		for i := 0; i < frames; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				p.EnqueueCount(rapid.IntRange(1, 5).Draw(t, "count"))
			case 1:
				p.EnqueueRequest(build())
			case 2:
				if rapid.Bool().Draw(t, "resize") {
					p.Resize(rapid.IntRange(0, 12).Draw(t, "newCap"))
				}
			}
			ticks := p.Step(rapid.Float64Range(0, 0.15).Draw(t, "dt"), build, w, after)
			if ticks > MaxBacklogTicks {
				t.Fatalf("ran %d ticks in one frame", ticks)
			}
			if p.Tick() != lastTick+uint64(ticks) {
				t.Fatalf("tick counter %d, expected %d", p.Tick(), lastTick+uint64(ticks))
			}
			lastTick = p.Tick()

			if p.Len() > p.Capacity() {
				t.Fatalf("%d live exceeds capacity %d", p.Len(), p.Capacity())
			}
			var prevID uint64
			for _, pr := range p.Active() {
				if pr.Dead {
					t.Fatalf("%s dead but still in the pool", pr.Label())
				}
				if pr.ID <= prevID {
					t.Fatalf("ids out of spawn order: %d after %d", pr.ID, prevID)
				}
				prevID = pr.ID
			}
			checkFrame(t, p)
		}
	})
}
