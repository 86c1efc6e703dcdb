package fireball

// --- Loop constants ---

const (
	FixedTick       = 1.0 / 90.0 // seconds per simulation tick
	MaxBacklogTicks = 6          // accumulator never holds more than this many ticks
	MaxFrameDelta   = 0.1        // seconds, larger wall-clock deltas are clamped
	DefaultCooldown = 0.35       // seconds between counted spawns

	// tickEpsilon absorbs rounding so deltas summing to whole ticks run exactly
	// that many.
	tickEpsilon = 1e-9
)

// Tuning holds every physical and visual constant the step function reads.
// The zero value is not useful; start from DefaultTuning and override fields.
type Tuning struct {
	Radius float64 // m

	// Active flight.
	Gravity                   float64 // m/s²
	BounceRestitution         float64 // vertical speed kept on a floor bounce
	MinBounceSpeed            float64 // m/s, slower rebounds come to rest
	BounceHorizontalRetention float64 // horizontal speed kept on a floor bounce
	HitStandoff               float64 // fraction of Radius kept clear of a hit point
	MaxTravelDistance         float64 // m travelled before the distance fade starts
	LaunchSpeed               float64 // m/s along the spawn direction
	MinStepLength             float64 // m, shorter steps skip the raycast

	// Distance fade.
	FadeGravityScale     float64
	FadeDamping          float64 // 1/s exponential velocity damping
	FadeGroundOffset     float64 // fraction of Radius used as ground offset
	FadeMinRebound       float64 // m/s upward speed after touching ground
	DistanceFadeDuration float64 // s

	// Hit fade.
	HitFadeDuration float64 // s

	// Visual scalars owned by the simulation.
	PulseSpeed                 float64 // rad/s
	PulseScaleAmplitude        float64
	PulseIntensityAmplitude    float64
	DistanceFadeScaleDecay     float64 // 1/s
	DistanceFadeIntensityDecay float64 // 1/s
	HitFadeScaleDecay          float64 // 1/s
	HitFadeIntensityDecay      float64 // 1/s
	SpinSpeed                  float64 // rad/s around Y
	VisibilityFloor            float64 // scale or intensity at or below this kills
}

// DefaultTuning returns the tuning used by the game client.
func DefaultTuning() Tuning {
	return Tuning{
		Radius: 0.35,

		Gravity:                   14.0,
		BounceRestitution:         0.55,
		MinBounceSpeed:            1.2,
		BounceHorizontalRetention: 0.82,
		HitStandoff:               0.35,
		MaxTravelDistance:         30.0,
		LaunchSpeed:               24.0,
		MinStepLength:             1e-9,

		FadeGravityScale:     0.4,
		FadeDamping:          2.5,
		FadeGroundOffset:     0.5,
		FadeMinRebound:       0.6,
		DistanceFadeDuration: 0.6,

		HitFadeDuration: 0.25,

		PulseSpeed:                 18.0,
		PulseScaleAmplitude:        0.12,
		PulseIntensityAmplitude:    0.25,
		DistanceFadeScaleDecay:     4.0,
		DistanceFadeIntensityDecay: 5.0,
		HitFadeScaleDecay:          10.0,
		HitFadeIntensityDecay:      14.0,
		SpinSpeed:                  9.0,
		VisibilityFloor:            0.02,
	}
}

var defaultTuning = DefaultTuning()
