// Package sandbox is a headless harness around fireball.Pool. It mirrors the
// viewer's frame loop without ebiten and supports deterministic seeding, scripted
// frame timing and structured logging.
package sandbox

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/hitfeed"
	"github.com/Garsondee/fireball/internal/world"
)

// Sim owns one pool and everything needed to drive it.
type Sim struct {
	Pool   *fireball.Pool
	Arena  *world.Arena
	SimLog *fireball.SimLog
	Feed   *hitfeed.Feed
	Hits   []hitfeed.HitEvent

	Frames int

	capacity int
	poolOpts []fireball.PoolOption
	origin   mgl64.Vec3
	aim      func(rng *rand.Rand) mgl64.Vec3
	rng      *rand.Rand
	after    []func(*fireball.Projectile)
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // arena, seed, capacity, pool options
	simOptWire                       // observers, applied after the pool exists
)

// Option is a builder function applied to a Sim during construction.
type Option struct {
	kind simOptionKind
	fn   func(*Sim)
}

// WithCapacity sets the pool capacity.
func WithCapacity(n int) Option {
	return Option{simOptInfra, func(s *Sim) { s.capacity = n }}
}

// WithArena replaces the default flat arena.
func WithArena(a *world.Arena) Option {
	return Option{simOptInfra, func(s *Sim) { s.Arena = a }}
}

// WithSeed sets the RNG seed used by the spawn builder.
func WithSeed(seed int64) Option {
	return Option{simOptInfra, func(s *Sim) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic harness
	}}
}

// WithPoolOptions forwards options to fireball.NewPool.
func WithPoolOptions(opts ...fireball.PoolOption) Option {
	return Option{simOptInfra, func(s *Sim) { s.poolOpts = append(s.poolOpts, opts...) }}
}

// WithOrigin sets where counted spawns launch from.
func WithOrigin(x, y, z float64) Option {
	return Option{simOptInfra, func(s *Sim) { s.origin = mgl64.Vec3{x, y, z} }}
}

// WithAim fixes the launch direction of counted spawns.
func WithAim(x, y, z float64) Option {
	return Option{simOptInfra, func(s *Sim) {
		dir := mgl64.Vec3{x, y, z}
		s.aim = func(*rand.Rand) mgl64.Vec3 { return dir }
	}}
}

// WithScatterAim launches counted spawns in a random horizontal direction with
// a slight upward tilt, drawn from the seeded RNG.
func WithScatterAim() Option {
	return Option{simOptInfra, func(s *Sim) { s.aim = scatter }}
}

// WithObserver adds a post-step observer alongside the hit feed.
func WithObserver(fn func(*fireball.Projectile)) Option {
	return Option{simOptWire, func(s *Sim) { s.after = append(s.after, fn) }}
}

// New constructs a Sim from the given options in two ordered passes:
//  1. Infrastructure (arena, seed, capacity, pool options)
//  2. Pool creation, then observers
func New(opts ...Option) *Sim {
	s := &Sim{
		capacity: 16,
		SimLog:   fireball.NewSimLog(),
		origin:   mgl64.Vec3{0, 1.5, 0},
		aim:      func(*rand.Rand) mgl64.Vec3 { return mgl64.Vec3{1, 0, 0} },
		rng:      rand.New(rand.NewSource(1)), // #nosec G404 -- harness default
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(s)
		}
	}
	if s.Arena == nil {
		s.Arena = world.Flat(0)
	}
	poolOpts := append([]fireball.PoolOption{fireball.WithSimLog(s.SimLog)}, s.poolOpts...)
	s.Pool = fireball.NewPool(s.capacity, poolOpts...)
	s.Feed = hitfeed.New(s.collectHit, s.Pool.Tick)
	for _, o := range opts {
		if o.kind == simOptWire {
			o.fn(s)
		}
	}
	return s
}

func scatter(rng *rand.Rand) mgl64.Vec3 {
	ang := rng.Float64() * 2 * math.Pi
	lift := 0.05 + rng.Float64()*0.25
	return mgl64.Vec3{math.Cos(ang), lift, math.Sin(ang)}
}

func (s *Sim) collectHit(b []byte) error {
	ev, err := hitfeed.DecodeHit(b)
	if err != nil {
		return err
	}
	s.Hits = append(s.Hits, ev)
	return nil
}

// Build is the spawn builder handed to the pool.
func (s *Sim) Build() fireball.SpawnRequest {
	return fireball.SpawnRequest{Origin: s.origin, Direction: s.aim(s.rng)}
}

func (s *Sim) observe(p *fireball.Projectile) {
	s.Feed.Observe(p)
	for _, fn := range s.after {
		fn(p)
	}
}

// Frame advances the pool by one render frame of delta seconds and returns the
// number of fixed ticks it ran.
func (s *Sim) Frame(delta float64) int {
	s.Frames++
	return s.Pool.Step(delta, s.Build, s.Arena, s.observe)
}

// RunTicks runs n frames of exactly one fixed tick each.
func (s *Sim) RunTicks(n int) {
	s.RunFrames(FixedFrames(n)...)
}

// FixedFrames returns n deltas of exactly one fixed tick.
func FixedFrames(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = fireball.FixedTick
	}
	return out
}

// RunFrames runs one frame per delta and returns the total ticks executed.
func (s *Sim) RunFrames(deltas ...float64) int {
	total := 0
	for _, d := range deltas {
		total += s.Frame(d)
	}
	return total
}

// RunJittered simulates seconds of wall-clock time at roughly fps frames per
// second, each frame time perturbed by up to ±jitter of its nominal length.
func (s *Sim) RunJittered(seconds, fps, jitter float64) int {
	if fps <= 0 || seconds <= 0 {
		return 0
	}
	nominal := 1 / fps
	total := 0
	for elapsed := 0.0; elapsed < seconds; {
		d := nominal * (1 + jitter*(2*s.rng.Float64()-1))
		if d < 0 {
			d = 0
		}
		elapsed += d
		total += s.Frame(d)
	}
	return total
}

// Fire queues n counted spawns.
func (s *Sim) Fire(n int) {
	s.Pool.EnqueueCount(n)
}

// Cast queues an explicit spawn from origin along dir.
func (s *Sim) Cast(origin, dir mgl64.Vec3) {
	s.Pool.EnqueueRequest(fireball.SpawnRequest{Origin: origin, Direction: dir})
}

// Rand exposes the harness RNG for scripted scenarios.
func (s *Sim) Rand() *rand.Rand { return s.rng }
