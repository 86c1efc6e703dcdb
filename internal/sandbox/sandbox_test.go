package sandbox

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/world"
)

func TestSim_WallHitReachesFeed(t *testing.T) {
	wall := world.NewArena(world.HeightField{}, world.Box{Min: mgl64.Vec3{6, -1, -4}, Max: mgl64.Vec3{7, 5, 4}})
	s := New(
		WithArena(wall),
		WithCapacity(4),
		WithAim(1, 0, 0),
		WithPoolOptions(fireball.WithCooldown(0)),
	)
	s.Fire(3)
	s.RunTicks(90)

	if len(s.Hits) != 3 {
		t.Fatalf("expected 3 hit events, got %d\n%s", len(s.Hits), s.SimLog.Format())
	}
	for i, h := range s.Hits {
		if h.X >= 6 {
			t.Errorf("hit %d at x=%.3f is inside the wall", i, h.X)
		}
	}
	if n := s.SimLog.CountCategory("phase", "hit_fade"); n != 3 {
		t.Fatalf("expected 3 hit_fade entries, got %d", n)
	}
}

func TestSim_OpenFieldFizzlesOut(t *testing.T) {
	s := New(WithAim(1, 0.5, 0), WithOrigin(0, 2, 0))
	s.Fire(1)
	s.RunTicks(400)

	st := s.Pool.Stats()
	if st.DistanceFades != 1 || st.HitFades != 0 || st.Expired != 1 {
		t.Fatalf("expected one distance fade and expiry on open ground, got %+v", st)
	}
	e, ok := s.SimLog.LastOf("phase", "distance_fade")
	if !ok {
		t.Fatal("missing distance_fade entry")
	}
	if e.NumVal < s.Pool.Tuning().MaxTravelDistance {
		t.Fatalf("fade logged at %.2fm, before max travel", e.NumVal)
	}
}

func TestSim_BouncesStayAboveGround(t *testing.T) {
	arena := world.NewArena(world.HeightField{Base: 0, Amplitude: 0.6, Wavelength: 18})
	radius := fireball.DefaultTuning().Radius
	s := New(
		WithArena(arena),
		WithAim(1, -0.4, 0.2),
		WithObserver(func(p *fireball.Projectile) {
			if p.Phase != fireball.PhaseActive {
				return
			}
			floor := arena.Terrain.Height(p.Position[0], p.Position[2]) + radius
			if p.Position[1] < floor-1e-9 {
				t.Errorf("%s below ground: y=%.3f floor=%.3f", p.Label(), p.Position[1], floor)
			}
		}),
	)
	s.Fire(1)
	s.RunTicks(200)

	if s.Pool.Stats().Spawned != 1 {
		t.Fatalf("expected one spawn, got %d", s.Pool.Stats().Spawned)
	}
}

func TestSim_JitteredFramesAccountForTime(t *testing.T) {
	s := New(WithSeed(3), WithScatterAim(), WithPoolOptions(fireball.WithCooldown(0.05)))
	s.Fire(50)
	ticks := s.RunJittered(2, 60, 0.5)

	if ticks != int(s.Pool.Tick()) {
		t.Fatalf("returned %d ticks, pool ran %d", ticks, s.Pool.Tick())
	}
	// 2s at 90Hz, minus at most one tick still in the accumulator and one
	// frame of overshoot.
	want := 2 / fireball.FixedTick
	if math.Abs(float64(ticks)-want) > 3 {
		t.Fatalf("expected about %.0f ticks, got %d", want, ticks)
	}
	if s.Frames == 0 {
		t.Fatal("no frames recorded")
	}
}

func TestSim_SeedIsDeterministic(t *testing.T) {
	run := func() fireball.PoolStats {
		s := New(WithSeed(11), WithArena(world.Demo()), WithScatterAim(), WithCapacity(6))
		s.Fire(40)
		s.RunJittered(3, 45, 0.4)
		return s.Pool.Stats()
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("same seed diverged:\n%+v\n%+v", a, b)
	}
}

func TestSim_StallDropsBacklog(t *testing.T) {
	s := New()
	ticks := s.RunFrames(FixedFrames(3)...)
	ticks += s.RunFrames(0.5)

	if ticks > 3+fireball.MaxBacklogTicks {
		t.Fatalf("stall ran %d ticks, backlog clamp not applied", ticks)
	}
	if s.Pool.Stats().DroppedBacklog <= 0 {
		t.Fatal("expected dropped backlog after a stall")
	}
}

func TestSim_RemoteCastBypassesCooldown(t *testing.T) {
	s := New(WithPoolOptions(fireball.WithCooldown(5)))
	s.Fire(2)
	s.Cast(mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, 0, 1})
	s.RunTicks(3)

	if s.Pool.Len() != 2 {
		t.Fatalf("expected the cast and one counted spawn, got %d live", s.Pool.Len())
	}
	if s.Pool.Active()[0].Velocity[2] <= 0 {
		t.Fatal("explicit cast should spawn first")
	}
}
