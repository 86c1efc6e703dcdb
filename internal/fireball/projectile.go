package fireball

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Phase is one of the mutually exclusive lifecycle stages of a projectile.
// Transitions only go Active → DistanceFade or Active → HitFade.
type Phase uint8

const (
	PhaseActive Phase = iota
	PhaseDistanceFade
	PhaseHitFade
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseDistanceFade:
		return "distance_fade"
	case PhaseHitFade:
		return "hit_fade"
	}
	return "unknown"
}

// Pose is the render-relevant subset of a projectile captured once per tick.
type Pose struct {
	Position  mgl64.Vec3
	Scale     float64
	Intensity float64
	RotationY float64
}

// Projectile is one simulated fireball. Only the pool creates projectiles and only
// Step mutates the simulation fields.
type Projectile struct {
	ID    uint64
	Phase Phase

	PhaseElapsed   float64 // s since entering Phase
	TotalElapsed   float64 // s since spawn
	TravelDistance float64 // m advanced while Active

	Position mgl64.Vec3
	Velocity mgl64.Vec3

	Scale     float64
	Intensity float64
	RotationY float64

	// Prev is written by the pool before each tick and read only for interpolation.
	Prev Pose

	PulseOffset float64
	Dead        bool

	// visual scalars at fade entry, decay starts from here
	fadeScale     float64
	fadeIntensity float64
}

// Pose returns the current render-relevant values.
func (p *Projectile) Pose() Pose {
	return Pose{
		Position:  p.Position,
		Scale:     p.Scale,
		Intensity: p.Intensity,
		RotationY: p.RotationY,
	}
}

// EnteredPhaseThisTick reports whether the last Step moved the projectile out of
// PhaseActive. Observers use it to react to a fresh hit without tracking history.
func (p *Projectile) EnteredPhaseThisTick() bool {
	return p.Phase != PhaseActive && p.PhaseElapsed == 0
}

// Label is the display form of the projectile id.
func (p *Projectile) Label() string {
	return DisplayID(p.ID)
}

// DisplayID formats an id for the presentation layer. Zero is the empty slot.
func DisplayID(id uint64) string {
	if id == 0 {
		return ""
	}
	return "fireball-" + strconv.FormatUint(id, 10)
}

// pulseOffset maps an id onto [0, 2π) so every projectile pulses out of phase with
// its neighbours without shared RNG state.
func pulseOffset(id uint64) float64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], id)
	h := xxhash.Sum64(b[:])
	return float64(h>>11) / float64(1<<53) * 2 * math.Pi
}

// newProjectile builds a freshly spawned projectile from a request.
func newProjectile(id uint64, req SpawnRequest, tn *Tuning) Projectile {
	dir := req.Direction
	if l := dir.Len(); l > 0 && !math.IsInf(l, 0) {
		dir = dir.Mul(1 / l)
	} else {
		dir = mgl64.Vec3{1, 0, 0}
	}
	p := Projectile{
		ID:          id,
		Phase:       PhaseActive,
		Position:    req.Origin,
		Velocity:    dir.Mul(tn.LaunchSpeed),
		Scale:       1,
		Intensity:   1,
		PulseOffset: pulseOffset(id),
	}
	p.Prev = p.Pose()
	return p
}
