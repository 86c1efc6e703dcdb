package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/atotto/clipboard"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/hitfeed"
	"github.com/Garsondee/fireball/internal/sandbox"
	"github.com/Garsondee/fireball/internal/world"
)

// remoteCastInterval is how often a simulated remote player casts into the arena.
const remoteCastInterval = 2.0 // seconds

type runStats struct {
	runIndex int
	seed     int64

	frames int
	ticks  int

	firstHitTick    int
	firstFizzleTick int
	firstRejectTick int

	stats      fireball.PoolStats
	remote     int
	remoteBad  int
	hitEvents  int
	feedFailed int
	casts      uint64
	samples    uint64

	meanHitTravel  float64
	meanLifetime   float64
	backlogDropped int
}

type reportConfig struct {
	seconds  float64
	fps      float64
	jitter   float64
	capacity int
	policy   fireball.SpawnPolicy
	cooldown float64
}

func main() {
	var runs int
	var seedBase int64
	var policy string
	var copyOut bool
	cfg := reportConfig{}

	flag.IntVar(&runs, "runs", 5, "number of headless runs")
	flag.Float64Var(&cfg.seconds, "seconds", 20, "simulated wall-clock seconds per run")
	flag.Float64Var(&cfg.fps, "fps", 60, "nominal render frame rate")
	flag.Float64Var(&cfg.jitter, "jitter", 0.3, "frame-time jitter as a fraction of the nominal frame")
	flag.Int64Var(&seedBase, "seed", 42, "base RNG seed for run 1")
	flag.IntVar(&cfg.capacity, "capacity", 24, "pool capacity")
	flag.StringVar(&policy, "policy", fireball.PolicyReject.String(), "full-pool spawn policy: reject or evict-oldest")
	flag.Float64Var(&cfg.cooldown, "cooldown", fireball.DefaultCooldown, "seconds between counted spawns")
	flag.BoolVar(&copyOut, "copy", false, "copy the report to the clipboard")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if cfg.seconds <= 0 || cfg.fps <= 0 {
		fmt.Println("error: -seconds and -fps must be > 0")
		return
	}
	p, err := fireball.ParsePolicy(policy)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	cfg.policy = p

	var buf bytes.Buffer
	w := io.MultiWriter(os.Stdout, &buf)

	fmt.Fprintf(w, "=== Headless Fireball Report ===\n")
	fmt.Fprintf(w, "runs=%d seconds=%.1f fps=%.0f jitter=%.2f capacity=%d policy=%s cooldown=%.2f seed=%d\n\n",
		runs, cfg.seconds, cfg.fps, cfg.jitter, cfg.capacity, cfg.policy, cfg.cooldown, seedBase)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		rs := runTriggerHeld(i+1, seedBase+int64(i), cfg)
		all = append(all, rs)
		printRun(w, rs)
	}
	printAggregate(w, all)

	if copyOut {
		if err := clipboard.WriteAll(buf.String()); err != nil {
			fmt.Println("clipboard:", err)
		} else {
			fmt.Println("(report copied to clipboard)")
		}
	}
}

// runTriggerHeld keeps one counted spawn queued at all times, so the cooldown is
// the only limit on local fire, and injects a remote cast every
// remoteCastInterval seconds through the wire codec.
func runTriggerHeld(runIndex int, seed int64, cfg reportConfig) runStats {
	s := sandbox.New(
		sandbox.WithSeed(seed),
		sandbox.WithCapacity(cfg.capacity),
		sandbox.WithArena(world.Demo()),
		sandbox.WithScatterAim(),
		sandbox.WithPoolOptions(
			fireball.WithPolicy(cfg.policy),
			fireball.WithCooldown(cfg.cooldown),
		),
	)
	rs := runStats{runIndex: runIndex, seed: seed}

	rng := s.Rand()
	nominal := 1 / cfg.fps
	nextRemote := remoteCastInterval
	for elapsed := 0.0; elapsed < cfg.seconds; {
		if count, _ := s.Pool.Pending(); count == 0 {
			s.Fire(1)
		}
		if elapsed >= nextRemote {
			nextRemote += remoteCastInterval
			if enqueueRemote(s, rng.Float64()*2*math.Pi) {
				rs.remote++
			} else {
				rs.remoteBad++
			}
		}
		d := nominal * (1 + cfg.jitter*(2*rng.Float64()-1))
		if d < 0 {
			d = 0
		}
		elapsed += d
		rs.ticks += s.Frame(d)
	}

	entries := s.SimLog.Entries()
	rs.frames = s.Frames
	rs.stats = s.Pool.Stats()
	rs.hitEvents = len(s.Hits)
	rs.feedFailed = s.Feed.Failed()
	rs.casts, rs.samples = s.Arena.Queries()
	rs.firstHitTick = firstTick(entries, "phase", "hit_fade")
	rs.firstFizzleTick = firstTick(entries, "phase", "distance_fade")
	rs.firstRejectTick = firstTick(entries, "spawn", "rejected")
	rs.meanHitTravel = meanNumVal(entries, "phase", "hit_fade")
	rs.meanLifetime = meanNumVal(entries, "lifecycle", "dead")
	rs.backlogDropped = s.SimLog.CountCategory("pool", "backlog_dropped")
	return rs
}

// enqueueRemote round-trips a cast from the arena edge through the codec and
// queues it as an explicit request.
func enqueueRemote(s *sandbox.Sim, angle float64) bool {
	origin := mgl64.Vec3{math.Cos(angle) * 20, 2, math.Sin(angle) * 20}
	req := fireball.SpawnRequest{Origin: origin, Direction: origin.Mul(-1)}
	b, err := hitfeed.EncodeCast(hitfeed.CastFromRequest("remote", req))
	if err != nil {
		return false
	}
	decoded, _, err := hitfeed.DecodeCast(b)
	if err != nil {
		return false
	}
	s.Pool.EnqueueRequest(decoded)
	return true
}

func firstTick(entries []fireball.SimLogEntry, category, key string) int {
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			return e.Tick
		}
	}
	return -1
}

func meanNumVal(entries []fireball.SimLogEntry, category, key string) float64 {
	sum, n := 0.0, 0
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			sum += e.NumVal
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func printRun(w io.Writer, rs runStats) {
	st := rs.stats
	fmt.Fprintf(w, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(w, "timing: frames=%d ticks=%d dropped_backlog=%.3fs backlog_events=%d\n",
		rs.frames, rs.ticks, st.DroppedBacklog, rs.backlogDropped)
	fmt.Fprintf(w, "phase_markers: first_hit=%d first_fizzle=%d first_reject=%d\n",
		rs.firstHitTick, rs.firstFizzleTick, rs.firstRejectTick)
	fmt.Fprintf(w, "spawn_totals: spawned=%d rejected=%d evicted=%d remote=%d remote_bad=%d peak_live=%d\n",
		st.Spawned, st.Rejected, st.Evicted, rs.remote, rs.remoteBad, st.PeakLive)
	fmt.Fprintf(w, "outcomes: hit_fade=%d distance_fade=%d expired=%d hit_rate=%.1f%%\n",
		st.HitFades, st.DistanceFades, st.Expired, pct(st.HitFades, st.HitFades+st.DistanceFades))
	fmt.Fprintf(w, "means: hit_travel=%.2fm lifetime=%.2fs\n", rs.meanHitTravel, rs.meanLifetime)
	fmt.Fprintf(w, "world_queries: casts=%d terrain_samples=%d hit_events=%d feed_failed=%d\n\n",
		rs.casts, rs.samples, rs.hitEvents, rs.feedFailed)
}

func printAggregate(w io.Writer, all []runStats) {
	totalSpawned := 0
	totalRejected := 0
	totalEvicted := 0
	totalHits := 0
	totalFizzles := 0
	totalExpired := 0
	totalRemote := 0
	peak := 0
	dropped := 0.0

	hitTicks := make([]int, 0, len(all))
	fizzleTicks := make([]int, 0, len(all))
	rejectTicks := make([]int, 0, len(all))

	for _, rs := range all {
		totalSpawned += rs.stats.Spawned
		totalRejected += rs.stats.Rejected
		totalEvicted += rs.stats.Evicted
		totalHits += rs.stats.HitFades
		totalFizzles += rs.stats.DistanceFades
		totalExpired += rs.stats.Expired
		totalRemote += rs.remote
		peak = max(peak, rs.stats.PeakLive)
		dropped += rs.stats.DroppedBacklog
		if rs.firstHitTick >= 0 {
			hitTicks = append(hitTicks, rs.firstHitTick)
		}
		if rs.firstFizzleTick >= 0 {
			fizzleTicks = append(fizzleTicks, rs.firstFizzleTick)
		}
		if rs.firstRejectTick >= 0 {
			rejectTicks = append(rejectTicks, rs.firstRejectTick)
		}
	}

	n := len(all)
	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d peak_live=%d dropped_backlog_total=%.3fs\n", n, peak, dropped)
	fmt.Fprintf(w, "avg_spawns_per_run: spawned=%.1f rejected=%.1f evicted=%.1f remote=%.1f\n",
		avg(totalSpawned, n), avg(totalRejected, n), avg(totalEvicted, n), avg(totalRemote, n))
	fmt.Fprintf(w, "avg_outcomes_per_run: hit_fade=%.1f distance_fade=%.1f expired=%.1f hit_rate=%.1f%%\n",
		avg(totalHits, n), avg(totalFizzles, n), avg(totalExpired, n), pct(totalHits, totalHits+totalFizzles))
	fmt.Fprintf(w, "phase_marker_avg_ticks: first_hit=%s first_fizzle=%s first_reject=%s\n",
		avgTickString(hitTicks), avgTickString(fizzleTicks), avgTickString(rejectTicks))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func pct(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
