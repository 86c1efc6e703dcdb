package viewer

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/hitfeed"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestScreenWorldRoundTrip(t *testing.T) {
	g := newTestGame(t)
	for _, p := range [][2]float64{{0, 0}, {12.5, -3}, {-20, 7.25}} {
		sx, sy := g.toScreen(p[0], p[1])
		x, z := g.toWorld(float64(sx), float64(sy))
		if math.Abs(x-p[0]) > 1e-3 || math.Abs(z-p[1]) > 1e-3 {
			t.Errorf("(%v,%v) round-tripped to (%v,%v)", p[0], p[1], x, z)
		}
	}
	if sx, sy := g.toScreen(0, 0); int(sx) != g.cfg.Width/2 || int(sy) != g.cfg.Height/2 {
		t.Fatalf("origin should be centred, got (%v,%v)", sx, sy)
	}
}

func TestStatsTextReflectsPool(t *testing.T) {
	g := newTestGame(t)
	g.pool.EnqueueRequest(fireball.SpawnRequest{Origin: g.origin, Direction: mgl64.Vec3{1, 0, 0}})
	g.pool.Step(fireball.FixedTick, nil, g.arena, g.feed.Observe)

	txt := g.statsText()
	if !strings.Contains(txt, "live 1/24") {
		t.Fatalf("expected live count in stats, got:\n%s", txt)
	}
	if !strings.Contains(txt, "policy reject") {
		t.Fatalf("expected policy in stats, got:\n%s", txt)
	}
}

func TestReceiveHitKeepsRecent(t *testing.T) {
	g := newTestGame(t)
	pool := fireball.NewPool(1)
	feed := hitfeed.New(g.receiveHit, pool.Tick)
	hit := fireball.WorldFuncs{Cast: func(_, _ mgl64.Vec3, _ float64) (float64, bool) { return 0, true }}

	for i := 0; i < 10; i++ {
		pool.EnqueueRequest(fireball.SpawnRequest{Direction: mgl64.Vec3{1, 0, 0}})
		pool.Step(fireball.FixedTick, nil, hit, feed.Observe)
		for pool.Len() > 0 {
			pool.Step(fireball.FixedTick, nil, hit, feed.Observe)
		}
	}

	if feed.Sent() != 10 {
		t.Fatalf("expected 10 hits sent, got %d", feed.Sent())
	}
	if len(g.hits) != 6 || g.hits[5].Label != "fireball-10" {
		t.Fatalf("expected the 6 most recent hits ending with fireball-10, got %d", len(g.hits))
	}
}
