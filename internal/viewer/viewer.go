// Package viewer is the interactive ebiten front end for a fireball pool. It
// draws the arena top-down and renders only the pool's interpolated frame.
package viewer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/hitfeed"
	"github.com/Garsondee/fireball/internal/world"
)

const (
	pixelsPerMetre = 14.0
	burstSize      = 5
	minCapacity    = 1
	maxCapacity    = 256
	hudFontSize    = 15
	localOwner     = "local"
)

// Config holds everything the viewer needs at construction.
type Config struct {
	Width    int
	Height   int
	Capacity int
	Policy   fireball.SpawnPolicy
	Cooldown float64
	Seed     int64
}

// DefaultConfig returns the window and pool the viewer opens with.
func DefaultConfig() Config {
	return Config{
		Width:    1280,
		Height:   800,
		Capacity: 24,
		Policy:   fireball.PolicyReject,
		Cooldown: fireball.DefaultCooldown,
		Seed:     time.Now().UnixNano(),
	}
}

// Game implements ebiten.Game.
type Game struct {
	cfg   Config
	pool  *fireball.Pool
	arena *world.Arena
	feed  *hitfeed.Feed
	rng   *rand.Rand
	face  *text.GoTextFace

	origin   mgl64.Vec3
	lastCast []byte // msgpack CastEvent of the most recent local spawn
	hits     []hitfeed.HitEvent
	status   string
	lastTime time.Time
	prevKeys map[ebiten.Key]bool
}

// New builds a viewer over the demo arena.
func New(cfg Config) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load hud font: %w", err)
	}
	g := &Game{
		cfg:      cfg,
		arena:    world.Demo(),
		rng:      rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- visual scatter only
		face:     &text.GoTextFace{Source: src, Size: hudFontSize},
		origin:   mgl64.Vec3{0, 1.5, 0},
		prevKeys: map[ebiten.Key]bool{},
	}
	g.pool = fireball.NewPool(cfg.Capacity,
		fireball.WithPolicy(cfg.Policy),
		fireball.WithCooldown(cfg.Cooldown),
	)
	g.feed = hitfeed.New(g.receiveHit, g.pool.Tick)
	return g, nil
}

// receiveHit stands in for the network: it decodes what the feed produced.
func (g *Game) receiveHit(b []byte) error {
	ev, err := hitfeed.DecodeHit(b)
	if err != nil {
		return err
	}
	g.hits = append(g.hits, ev)
	if len(g.hits) > 6 {
		g.hits = g.hits[len(g.hits)-6:]
	}
	return nil
}

// build aims each counted spawn toward the cursor with a little scatter and
// records the request so R can replay it as a remote cast.
func (g *Game) build() fireball.SpawnRequest {
	mx, my := ebiten.CursorPosition()
	wx, wz := g.toWorld(float64(mx), float64(my))
	dir := mgl64.Vec3{wx - g.origin[0], 0, wz - g.origin[2]}
	if dir.Len() < 1e-6 {
		dir = mgl64.Vec3{1, 0, 0}
	}
	dir = dir.Normalize()
	spread := (g.rng.Float64()*2 - 1) * 0.05
	sin, cos := math.Sincos(spread)
	dir = mgl64.Vec3{dir[0]*cos - dir[2]*sin, 0.12, dir[0]*sin + dir[2]*cos}

	req := fireball.SpawnRequest{Origin: g.origin, Direction: dir}
	if b, err := hitfeed.EncodeCast(hitfeed.CastFromRequest(localOwner, req)); err == nil {
		g.lastCast = b
	} else {
		g.status = err.Error()
	}
	return req
}

func (g *Game) Update() error {
	g.handleInput()

	now := time.Now()
	var dt float64
	if !g.lastTime.IsZero() {
		dt = now.Sub(g.lastTime).Seconds()
	}
	g.lastTime = now

	g.pool.Step(dt, g.build, g.arena, g.feed.Observe)
	return nil
}

// pressed reports a key that went down this frame and records its state.
func (g *Game) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered).
func (g *Game) handleInput() {
	cur := map[ebiten.Key]bool{}

	if g.pressed(cur, ebiten.KeySpace) {
		g.pool.EnqueueCount(1)
	}
	if g.pressed(cur, ebiten.KeyF) {
		g.pool.EnqueueCount(burstSize)
	}

	// R: replay the last cast as if it arrived from a remote player.
	if g.pressed(cur, ebiten.KeyR) && g.lastCast != nil {
		req, owner, err := hitfeed.DecodeCast(g.lastCast)
		if err != nil {
			g.status = err.Error()
		} else {
			g.pool.EnqueueRequest(req)
			g.status = "replayed cast from " + owner
		}
	}

	if g.pressed(cur, ebiten.KeyBracketLeft) {
		g.pool.Resize(max(minCapacity, g.pool.Capacity()/2))
	}
	if g.pressed(cur, ebiten.KeyBracketRight) {
		g.pool.Resize(min(maxCapacity, g.pool.Capacity()*2))
	}

	if g.pressed(cur, ebiten.KeyC) {
		if err := clipboard.WriteAll(g.statsText()); err != nil {
			g.status = "clipboard: " + err.Error()
		} else {
			g.status = "stats copied"
		}
	}

	g.prevKeys = cur
}

// statsText is the multi-line summary shown in the HUD and copied by C.
func (g *Game) statsText() string {
	st := g.pool.Stats()
	count, reqs := g.pool.Pending()
	casts, samples := g.arena.Queries()
	return fmt.Sprintf(
		"live %d/%d  policy %s  cooldown %.2fs\n"+
			"queued %d counted, %d explicit\n"+
			"spawned %d  rejected %d  evicted %d\n"+
			"hits %d  fizzles %d  expired %d  peak %d\n"+
			"ticks %d  dropped %.3fs  alpha %.2f\n"+
			"casts %d  terrain samples %d  hit events %d/%d",
		g.pool.Len(), g.pool.Capacity(), g.pool.Policy(), g.pool.Cooldown(),
		count, reqs,
		st.Spawned, st.Rejected, st.Evicted,
		st.HitFades, st.DistanceFades, st.Expired, st.PeakLive,
		st.Ticks, st.DroppedBacklog, g.pool.RenderFrame().Alpha,
		casts, samples, g.feed.Sent(), g.feed.Sent()+g.feed.Failed(),
	)
}

// toScreen maps world (x, z) onto the window with the launch point centred.
func (g *Game) toScreen(x, z float64) (float32, float32) {
	return float32(float64(g.cfg.Width)/2 + x*pixelsPerMetre),
		float32(float64(g.cfg.Height)/2 + z*pixelsPerMetre)
}

func (g *Game) toWorld(sx, sy float64) (float64, float64) {
	return (sx - float64(g.cfg.Width)/2) / pixelsPerMetre,
		(sy - float64(g.cfg.Height)/2) / pixelsPerMetre
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 16, B: 20, A: 255})
	g.drawTerrain(screen)
	g.drawBoxes(screen)
	g.drawFireballs(screen)
	g.drawHUD(screen)
}

// drawTerrain shades a coarse grid by ground height.
func (g *Game) drawTerrain(screen *ebiten.Image) {
	const cell = 2.0
	halfW := float64(g.cfg.Width) / 2 / pixelsPerMetre
	halfH := float64(g.cfg.Height) / 2 / pixelsPerMetre
	size := float32(cell * pixelsPerMetre)
	amp := math.Max(g.arena.Terrain.Amplitude, 1e-6)
	for x := -halfW; x < halfW; x += cell {
		for z := -halfH; z < halfH; z += cell {
			h := g.arena.Terrain.Height(x+cell/2, z+cell/2) - g.arena.Terrain.Base
			shade := uint8(34 + 14*h/amp)
			sx, sy := g.toScreen(x, z)
			vector.DrawFilledRect(screen, sx, sy, size, size, color.RGBA{R: shade / 2, G: shade, B: shade / 2, A: 255}, false)
		}
	}
}

func (g *Game) drawBoxes(screen *ebiten.Image) {
	for _, b := range g.arena.Boxes {
		x0, y0 := g.toScreen(b.Min[0], b.Min[2])
		x1, y1 := g.toScreen(b.Max[0], b.Max[2])
		vector.DrawFilledRect(screen, x0, y0, x1-x0, y1-y0, color.RGBA{R: 70, G: 66, B: 60, A: 255}, false)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1.0, color.RGBA{R: 120, G: 112, B: 96, A: 220}, false)
	}
	ox, oy := g.toScreen(g.origin[0], g.origin[2])
	vector.StrokeCircle(screen, ox, oy, 6, 1.5, color.RGBA{R: 200, G: 200, B: 220, A: 200}, false)
}

// drawFireballs renders every active slot. Height above the ground lifts a
// shadow offset; intensity drives alpha and scale drives radius.
func (g *Game) drawFireballs(screen *ebiten.Image) {
	radius := g.pool.Tuning().Radius * pixelsPerMetre
	for _, s := range g.pool.RenderFrame().Slots {
		if !s.Active {
			continue
		}
		ground := g.arena.Terrain.Height(s.Position[0], s.Position[2])
		lift := float32((s.Position[1] - ground) * pixelsPerMetre * 0.5)
		sx, sy := g.toScreen(s.Position[0], s.Position[2])
		r := float32(radius * s.Scale)
		a := uint8(math.Min(1, math.Max(0, s.Intensity)) * 255)

		vector.DrawFilledCircle(screen, sx, sy, r, color.RGBA{A: 90}, false)

		core := color.RGBA{R: 255, G: 150, B: 40, A: a}
		switch s.Phase {
		case fireball.PhaseHitFade:
			core = color.RGBA{R: 255, G: 240, B: 200, A: a}
		case fireball.PhaseDistanceFade:
			core = color.RGBA{R: 200, G: 80, B: 30, A: a}
		}
		cy := sy - lift
		vector.DrawFilledCircle(screen, sx, cy, r*1.6, color.RGBA{R: 255, G: 90, B: 0, A: a / 3}, false)
		vector.DrawFilledCircle(screen, sx, cy, r, core, false)

		// Spin marker.
		sin, cos := math.Sincos(s.RotationY)
		vector.StrokeLine(screen, sx, cy, sx+float32(cos)*r, cy+float32(sin)*r, 1.0, color.RGBA{R: 255, G: 255, B: 255, A: a / 2}, false)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := g.statsText() + "\n[Space] fire  [F] burst  [R] replay cast  [ ] capacity  [C] copy"
	if g.status != "" {
		lines += "\n" + g.status
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(12, 10)
	op.LineSpacing = hudFontSize * 1.4
	op.ColorScale.ScaleWithColor(color.RGBA{R: 200, G: 220, B: 200, A: 255})
	text.Draw(screen, lines, g.face, op)

	for i, h := range g.hits {
		ebitenutil.DebugPrintAt(screen,
			fmt.Sprintf("T=%04d %s hit (%.1f, %.1f, %.1f)", h.Tick, h.Label, h.X, h.Y, h.Z),
			12, g.cfg.Height-20-16*(len(g.hits)-1-i))
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
