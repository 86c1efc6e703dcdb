package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/fireball/internal/fireball"
	"github.com/Garsondee/fireball/internal/viewer"
)

func main() {
	cfg := viewer.DefaultConfig()
	policy := flag.String("policy", fireball.PolicyReject.String(), "full-pool spawn policy: reject or evict-oldest")
	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "maximum live fireballs")
	flag.Float64Var(&cfg.Cooldown, "cooldown", cfg.Cooldown, "seconds between counted spawns")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "aim scatter seed")
	flag.Parse()

	p, err := fireball.ParsePolicy(*policy)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Policy = p

	g, err := viewer.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowTitle("Fireball")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
