package fireball

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World answers the two queries the simulation needs from its surroundings.
// Both must be synchronous, side-effect free and fast: they run several times
// per projectile per tick.
type World interface {
	// CastSolidHit returns the distance to the nearest solid along dir (a unit
	// vector) within maxDistance, excluding the projectile itself.
	CastSolidHit(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool)
	// TerrainHeight returns the ground elevation under (x, z).
	TerrainHeight(x, z float64) float64
}

// WorldFuncs adapts a pair of closures to World.
type WorldFuncs struct {
	Cast    func(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool)
	Terrain func(x, z float64) float64
}

func (w WorldFuncs) CastSolidHit(origin, dir mgl64.Vec3, maxDistance float64) (float64, bool) {
	if w.Cast == nil {
		return 0, false
	}
	return w.Cast(origin, dir, maxDistance)
}

func (w WorldFuncs) TerrainHeight(x, z float64) float64 {
	if w.Terrain == nil {
		return math.Inf(-1)
	}
	return w.Terrain(x, z)
}

// Step advances p by one fixed tick of dt seconds. It mutates p in place and
// allocates nothing. Dead projectiles are left untouched. A nil tuning uses
// DefaultTuning.
func Step(p *Projectile, dt float64, w World, tn *Tuning) {
	if p.Dead {
		return
	}
	if tn == nil {
		tn = &defaultTuning
	}

	p.TotalElapsed += dt
	p.PhaseElapsed += dt
	p.RotationY += tn.SpinSpeed * dt

	switch p.Phase {
	case PhaseActive:
		stepActive(p, dt, w, tn)
	case PhaseDistanceFade:
		stepDistanceFade(p, dt, w, tn)
	case PhaseHitFade:
		// frozen; velocity was zeroed on entry
	}

	updateVisuals(p, tn)

	switch {
	case p.Scale <= tn.VisibilityFloor || p.Intensity <= tn.VisibilityFloor:
		p.Dead = true
	case p.Phase == PhaseDistanceFade && p.PhaseElapsed > tn.DistanceFadeDuration:
		p.Dead = true
	case p.Phase == PhaseHitFade && p.PhaseElapsed > tn.HitFadeDuration:
		p.Dead = true
	}
}

func stepActive(p *Projectile, dt float64, w World, tn *Tuning) {
	p.Velocity[1] -= tn.Gravity * dt
	next := p.Position.Add(p.Velocity.Mul(dt))

	floor := w.TerrainHeight(next[0], next[2]) + tn.Radius
	if next[1] < floor {
		next[1] = floor
		if p.Velocity[1] < 0 {
			vy := -p.Velocity[1] * tn.BounceRestitution
			if vy < tn.MinBounceSpeed {
				vy = 0
			}
			p.Velocity[1] = vy
			p.Velocity[0] *= tn.BounceHorizontalRetention
			p.Velocity[2] *= tn.BounceHorizontalRetention
		}
	}

	delta := next.Sub(p.Position)
	length := delta.Len()
	if length <= tn.MinStepLength {
		p.Position = next
		p.TravelDistance += length
		checkTravel(p, tn)
		return
	}

	dir := delta.Mul(1 / length)
	if hit, ok := w.CastSolidHit(p.Position, dir, length); ok {
		advance := hit - tn.Radius*tn.HitStandoff
		if advance < 0 {
			advance = 0
		}
		if advance > length {
			advance = length
		}
		p.Position = p.Position.Add(dir.Mul(advance))
		p.TravelDistance += advance
		p.Velocity = mgl64.Vec3{}
		enterFade(p, PhaseHitFade)
		return
	}

	p.Position = next
	p.TravelDistance += length
	checkTravel(p, tn)
}

func checkTravel(p *Projectile, tn *Tuning) {
	if p.TravelDistance >= tn.MaxTravelDistance {
		enterFade(p, PhaseDistanceFade)
	}
}

func stepDistanceFade(p *Projectile, dt float64, w World, tn *Tuning) {
	p.Velocity[1] -= tn.Gravity * tn.FadeGravityScale * dt
	p.Velocity = p.Velocity.Mul(math.Exp(-tn.FadeDamping * dt))
	p.Position = p.Position.Add(p.Velocity.Mul(dt))

	floor := w.TerrainHeight(p.Position[0], p.Position[2]) + tn.Radius*tn.FadeGroundOffset
	if p.Position[1] < floor {
		p.Position[1] = floor
		if p.Velocity[1] < 0 {
			p.Velocity[1] = math.Max(-p.Velocity[1]*tn.BounceRestitution, tn.FadeMinRebound)
		}
	}
}

// enterFade leaves PhaseActive. The visual scalars at this instant become the
// starting point of the fade decay.
func enterFade(p *Projectile, phase Phase) {
	p.Phase = phase
	p.PhaseElapsed = 0
	p.fadeScale = p.Scale
	p.fadeIntensity = p.Intensity
}

func updateVisuals(p *Projectile, tn *Tuning) {
	switch p.Phase {
	case PhaseActive:
		pulse := math.Sin(p.TotalElapsed*tn.PulseSpeed + p.PulseOffset)
		p.Scale = 1 + tn.PulseScaleAmplitude*pulse
		p.Intensity = 1 + tn.PulseIntensityAmplitude*pulse
	case PhaseDistanceFade:
		p.Scale = p.fadeScale * math.Exp(-tn.DistanceFadeScaleDecay*p.PhaseElapsed)
		p.Intensity = p.fadeIntensity * math.Exp(-tn.DistanceFadeIntensityDecay*p.PhaseElapsed)
	case PhaseHitFade:
		p.Scale = p.fadeScale * math.Exp(-tn.HitFadeScaleDecay*p.PhaseElapsed)
		p.Intensity = p.fadeIntensity * math.Exp(-tn.HitFadeIntensityDecay*p.PhaseElapsed)
	}
}
