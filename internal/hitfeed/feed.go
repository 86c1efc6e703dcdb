// Package hitfeed forwards projectile hits to the networking layer and turns
// remote casts back into spawn requests.
package hitfeed

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Garsondee/fireball/internal/fireball"
)

// ErrMalformedCast is returned when a decoded cast cannot produce a projectile.
var ErrMalformedCast = errors.New("malformed cast")

// HitEvent is sent once per projectile when it enters the hit fade.
type HitEvent struct {
	ID    uint64  `msgpack:"id"`
	Label string  `msgpack:"label"`
	Tick  uint64  `msgpack:"tick"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Z     float64 `msgpack:"z"`
}

// CastEvent carries a remote player's cast so it can be replayed locally.
type CastEvent struct {
	Owner     string     `msgpack:"owner"`
	Origin    [3]float64 `msgpack:"origin"`
	Direction [3]float64 `msgpack:"dir"`
}

// Sink receives encoded frames. Returning an error does not stop the feed.
type Sink func([]byte) error

// Feed is a post-step observer for fireball.Pool.Step.
type Feed struct {
	sink Sink
	tick func() uint64

	sent    int
	failed  int
	lastErr error
}

// New returns a feed writing to sink. tick supplies the pool tick stamped on
// each event and may be nil.
func New(sink Sink, tick func() uint64) *Feed {
	return &Feed{sink: sink, tick: tick}
}

// Observe is passed to Pool.Step as the after callback.
func (f *Feed) Observe(p *fireball.Projectile) {
	if p.Phase != fireball.PhaseHitFade || !p.EnteredPhaseThisTick() {
		return
	}
	ev := HitEvent{
		ID:    p.ID,
		Label: p.Label(),
		X:     p.Position[0],
		Y:     p.Position[1],
		Z:     p.Position[2],
	}
	if f.tick != nil {
		ev.Tick = f.tick()
	}
	b, err := msgpack.Marshal(&ev)
	if err != nil {
		f.fail(fmt.Errorf("encode hit %s: %w", ev.Label, err))
		return
	}
	if f.sink == nil {
		f.sent++
		return
	}
	if err := f.sink(b); err != nil {
		f.fail(fmt.Errorf("send hit %s: %w", ev.Label, err))
		return
	}
	f.sent++
}

func (f *Feed) fail(err error) {
	f.failed++
	f.lastErr = err
}

// Sent returns how many hit events were delivered.
func (f *Feed) Sent() int { return f.sent }

// Failed returns how many hit events could not be delivered.
func (f *Feed) Failed() int { return f.failed }

// Err returns the most recent delivery error, if any.
func (f *Feed) Err() error { return f.lastErr }

// DecodeHit parses a frame produced by Observe.
func DecodeHit(b []byte) (HitEvent, error) {
	var ev HitEvent
	if err := msgpack.Unmarshal(b, &ev); err != nil {
		return HitEvent{}, fmt.Errorf("decode hit: %w", err)
	}
	return ev, nil
}

// EncodeCast serialises a cast for the wire.
func EncodeCast(ev CastEvent) ([]byte, error) {
	b, err := msgpack.Marshal(&ev)
	if err != nil {
		return nil, fmt.Errorf("encode cast from %q: %w", ev.Owner, err)
	}
	return b, nil
}

// CastFromRequest builds the wire form of a local spawn request.
func CastFromRequest(owner string, req fireball.SpawnRequest) CastEvent {
	return CastEvent{
		Owner:     owner,
		Origin:    [3]float64(req.Origin),
		Direction: [3]float64(req.Direction),
	}
}

// DecodeCast parses a remote cast into a spawn request ready for
// Pool.EnqueueRequest. Non-finite coordinates and zero directions are rejected.
func DecodeCast(b []byte) (fireball.SpawnRequest, string, error) {
	var ev CastEvent
	if err := msgpack.Unmarshal(b, &ev); err != nil {
		return fireball.SpawnRequest{}, "", fmt.Errorf("decode cast: %w", err)
	}
	origin := mgl64.Vec3(ev.Origin)
	dir := mgl64.Vec3(ev.Direction)
	for i := 0; i < 3; i++ {
		if !finite(origin[i]) || !finite(dir[i]) {
			return fireball.SpawnRequest{}, ev.Owner, fmt.Errorf("cast from %q: non-finite coordinate: %w", ev.Owner, ErrMalformedCast)
		}
	}
	if dir.Len() == 0 {
		return fireball.SpawnRequest{}, ev.Owner, fmt.Errorf("cast from %q: zero direction: %w", ev.Owner, ErrMalformedCast)
	}
	return fireball.SpawnRequest{Origin: origin, Direction: dir.Normalize()}, ev.Owner, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
