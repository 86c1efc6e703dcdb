package fireball

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpawnRequest fully describes a new projectile.
type SpawnRequest struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // normalised at spawn; zero launches along +X
}

// SpawnBuilder synthesises a request at drain time so origin and facing reflect
// the moment of the actual spawn.
type SpawnBuilder func() SpawnRequest

// SpawnPolicy decides what a spawn into a full pool does.
type SpawnPolicy uint8

const (
	// PolicyReject drops the spawn. The intent that produced it is consumed.
	PolicyReject SpawnPolicy = iota
	// PolicyEvictOldest removes the oldest live projectile to make room.
	PolicyEvictOldest
)

func (p SpawnPolicy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyEvictOldest:
		return "evict-oldest"
	}
	return "unknown"
}

// ParsePolicy is the inverse of SpawnPolicy.String.
func ParsePolicy(s string) (SpawnPolicy, error) {
	switch s {
	case "reject":
		return PolicyReject, nil
	case "evict-oldest", "evict":
		return PolicyEvictOldest, nil
	}
	return PolicyReject, fmt.Errorf("unknown spawn policy %q (want reject or evict-oldest)", s)
}

// PoolStats are cumulative counters since the pool was created.
type PoolStats struct {
	Ticks          uint64
	Spawned        int
	Rejected       int
	Evicted        int
	HitFades       int
	DistanceFades  int
	Expired        int
	PeakLive       int
	DroppedBacklog float64 // wall-clock seconds discarded by the backlog clamp
}

// Pool owns a bounded set of live projectiles, the spawn queues, the cooldown
// gate and the fixed-step accumulator. It is not safe for concurrent use.
type Pool struct {
	tuning   Tuning
	policy   SpawnPolicy
	cooldown float64 // configured reset value

	maxActive int
	active    []Projectile // spawn order

	cooldownLeft float64
	pendingCount int
	pending      []SpawnRequest

	accumulator float64
	nextID      uint64
	tick        uint64

	frame RenderFrame
	stats PoolStats
	log   *SimLog
}

// PoolOption configures a pool at construction.
type PoolOption func(*Pool)

// WithTuning replaces the default tuning.
func WithTuning(tn Tuning) PoolOption {
	return func(p *Pool) { p.tuning = tn }
}

// WithCooldown sets the seconds between counted spawns. Negative values clamp to 0.
func WithCooldown(seconds float64) PoolOption {
	return func(p *Pool) { p.cooldown = math.Max(seconds, 0) }
}

// WithPolicy selects the full-pool behaviour.
func WithPolicy(policy SpawnPolicy) PoolOption {
	return func(p *Pool) { p.policy = policy }
}

// WithSimLog records spawn, phase and pool events into log.
func WithSimLog(log *SimLog) PoolOption {
	return func(p *Pool) { p.log = log }
}

// NewPool creates a pool holding at most maxActive live projectiles. A capacity of
// zero is legal and never spawns; negative capacities clamp to zero.
func NewPool(maxActive int, opts ...PoolOption) *Pool {
	if maxActive < 0 {
		maxActive = 0
	}
	p := &Pool{
		tuning:    DefaultTuning(),
		cooldown:  DefaultCooldown,
		maxActive: maxActive,
		active:    make([]Projectile, 0, maxActive),
		nextID:    1,
	}
	for _, o := range opts {
		o(p)
	}
	p.frame.resize(maxActive)
	return p
}

// EnqueueCount asks for n spawns whose parameters come from the builder passed
// to Step at drain time.
func (p *Pool) EnqueueCount(n int) {
	if n <= 0 {
		return
	}
	p.pendingCount += n
}

// EnqueueRequest queues a fully specified spawn. Explicit requests drain before
// counted ones and ignore the cooldown.
func (p *Pool) EnqueueRequest(req SpawnRequest) {
	p.pending = append(p.pending, req)
}

// Step consumes deltaSeconds of wall-clock time, runs every whole fixed tick it
// covers and publishes the render frame. after, when non-nil, is called once per
// projectile still alive right after its step. It returns the number of ticks run.
func (p *Pool) Step(deltaSeconds float64, build SpawnBuilder, w World, after func(*Projectile)) int {
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	if deltaSeconds > MaxFrameDelta {
		p.stats.DroppedBacklog += deltaSeconds - MaxFrameDelta
		deltaSeconds = MaxFrameDelta
	}

	p.accumulator += deltaSeconds
	if maxAcc := MaxBacklogTicks * FixedTick; p.accumulator > maxAcc {
		dropped := p.accumulator - maxAcc
		p.stats.DroppedBacklog += dropped
		p.logf(0, "pool", "backlog_dropped", dropped, "%.4fs", dropped)
		p.accumulator = maxAcc
	}

	ticks := 0
	for p.accumulator >= FixedTick-tickEpsilon {
		p.fixedTick(build, w, after)
		p.accumulator -= FixedTick
		ticks++
	}
	if p.accumulator < 0 {
		p.accumulator = 0
	}

	p.Publish()
	return ticks
}

// fixedTick runs one simulation tick: spawn drain, snapshot, step, compact.
func (p *Pool) fixedTick(build SpawnBuilder, w World, after func(*Projectile)) {
	p.tick++
	p.stats.Ticks++

	p.cooldownLeft = math.Max(p.cooldownLeft-FixedTick, 0)
	p.drainSpawn(build)

	for i := range p.active {
		p.active[i].Prev = p.active[i].Pose()
	}

	for i := range p.active {
		pr := &p.active[i]
		before := pr.Phase
		Step(pr, FixedTick, w, &p.tuning)
		if pr.Phase != before {
			p.notePhase(pr)
		}
		if pr.Dead {
			p.stats.Expired++
			p.logf(pr.ID, "lifecycle", "dead", pr.TotalElapsed, "%s after %.3fs", pr.Phase, pr.TotalElapsed)
			continue
		}
		if after != nil {
			after(pr)
		}
	}

	kept := p.active[:0]
	for i := range p.active {
		if !p.active[i].Dead {
			kept = append(kept, p.active[i])
		}
	}
	clear(p.active[len(kept):])
	p.active = kept
}

func (p *Pool) drainSpawn(build SpawnBuilder) {
	if len(p.pending) > 0 {
		req := p.pending[0]
		copy(p.pending, p.pending[1:])
		p.pending = p.pending[:len(p.pending)-1]
		p.spawn(req)
		return
	}
	if p.pendingCount <= 0 || p.cooldownLeft > 0 || build == nil {
		return
	}
	ok := p.spawn(build())
	p.pendingCount--
	if ok {
		p.cooldownLeft = p.cooldown
	}
}

// spawn adds a projectile if there is room, applying the eviction policy when
// the pool is full. It reports whether a projectile was created.
func (p *Pool) spawn(req SpawnRequest) bool {
	if p.maxActive == 0 {
		p.stats.Rejected++
		p.logf(0, "spawn", "rejected", 0, "capacity 0")
		return false
	}
	if len(p.active) >= p.maxActive {
		if p.policy != PolicyEvictOldest {
			p.stats.Rejected++
			p.logf(0, "spawn", "rejected", float64(len(p.active)), "pool full (%d)", p.maxActive)
			return false
		}
		evicted := p.active[0].ID
		p.dropOldest(1)
		p.stats.Evicted++
		p.logf(evicted, "spawn", "evicted", 0, "oldest displaced")
	}

	id := p.nextID
	p.nextID++
	p.active = append(p.active, newProjectile(id, req, &p.tuning))
	p.stats.Spawned++
	if n := len(p.active); n > p.stats.PeakLive {
		p.stats.PeakLive = n
	}
	p.logf(id, "spawn", "accepted", float64(len(p.active)),
		"origin=(%.2f,%.2f,%.2f)", req.Origin[0], req.Origin[1], req.Origin[2])
	return true
}

// dropOldest removes the n oldest live projectiles, keeping the order of the rest.
func (p *Pool) dropOldest(n int) {
	if n <= 0 {
		return
	}
	if n > len(p.active) {
		n = len(p.active)
	}
	rest := copy(p.active, p.active[n:])
	clear(p.active[rest:])
	p.active = p.active[:rest]
}

func (p *Pool) notePhase(pr *Projectile) {
	switch pr.Phase {
	case PhaseHitFade:
		p.stats.HitFades++
		p.logf(pr.ID, "phase", "hit_fade", pr.TravelDistance,
			"at (%.2f,%.2f,%.2f)", pr.Position[0], pr.Position[1], pr.Position[2])
	case PhaseDistanceFade:
		p.stats.DistanceFades++
		p.logf(pr.ID, "phase", "distance_fade", pr.TravelDistance, "travel %.2fm", pr.TravelDistance)
	}
}

// Resize changes the capacity. Shrinking truncates the oldest projectiles first.
func (p *Pool) Resize(maxActive int) {
	if maxActive < 0 {
		maxActive = 0
	}
	if maxActive == p.maxActive {
		return
	}
	if over := len(p.active) - maxActive; over > 0 {
		p.dropOldest(over)
	}
	if cap(p.active) < maxActive {
		grown := make([]Projectile, len(p.active), maxActive)
		copy(grown, p.active)
		p.active = grown
	}
	p.logf(0, "pool", "resize", float64(maxActive), "%d → %d", p.maxActive, maxActive)
	p.maxActive = maxActive
	p.frame.resize(maxActive)
	p.Publish()
}

// Publish rewrites the render frame from the current state and accumulator.
// Calling it again without an intervening tick yields the same frame.
func (p *Pool) Publish() {
	p.frame.publish(p.active, p.accumulator/FixedTick)
}

// RenderFrame returns the published snapshot. It stays valid until the next
// Step, Publish or Resize call and must not be mutated.
func (p *Pool) RenderFrame() *RenderFrame { return &p.frame }

// Active returns the live projectiles in spawn order. The slice is owned by the
// pool and only valid until the next Step.
func (p *Pool) Active() []Projectile { return p.active }

func (p *Pool) Len() int { return len(p.active) }
func (p *Pool) Capacity() int { return p.maxActive }
func (p *Pool) Policy() SpawnPolicy { return p.policy }
func (p *Pool) Cooldown() float64 { return p.cooldownLeft }
func (p *Pool) Accumulator() float64 { return p.accumulator }
func (p *Pool) Tick() uint64 { return p.tick }
func (p *Pool) Stats() PoolStats { return p.stats }
func (p *Pool) Tuning() Tuning { return p.tuning }
func (p *Pool) Pending() (count, requests int) {
	return p.pendingCount, len(p.pending)
}

// logf records an event for projectile id; id 0 marks a pool-wide event.
func (p *Pool) logf(id uint64, category, key string, num float64, format string, args ...any) {
	if p.log == nil {
		return
	}
	label := "--"
	if id != 0 {
		label = DisplayID(id)
	}
	p.log.Add(int(p.tick), label, category, key, fmt.Sprintf(format, args...), num)
}
