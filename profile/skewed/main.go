// Profiling:
// go build ./profile/skewed
// ./skewed -config engine.toml
// go tool pprof -http=":8000" -nodefraction=0.001 ./skewed cpu.pprof

package main

import (
	"flag"
	"os"
	"unsafe"

	"github.com/TheBitDrifter/table"
	"github.com/TheBitDrifter/tecs"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

type position struct {
	X, Y float64
}

type velocity struct {
	X, Y float64
}

func main() {
	configPath := flag.String("config", "", "engine config file (.toml or .yaml)")
	rounds := flag.Int("rounds", 20, "fresh engines to build")
	iters := flag.Int("iters", 1000, "iterations per engine")
	rare := flag.Int("rare", 16, "entities carrying velocity")
	flag.Parse()

	cfg := tecs.DefaultConfig()
	if *configPath != "" {
		loaded, err := tecs.LoadConfig(*configPath)
		if err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := tecs.NewLogger(cfg.Logging)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if need := cfg.ArenaBytesFor(unsafe.Sizeof(position{}), unsafe.Sizeof(velocity{})); cfg.ArenaBytes < need {
		log.Info("growing arena to fit a full population",
			zap.Int("configured", cfg.ArenaBytes),
			zap.Int("required", need),
		)
		cfg.ArenaBytes = need
	}

	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(log, cfg, *rounds, *iters, min(*rare, cfg.MaxEntities))
	p.Stop()
}

func run(log *zap.Logger, cfg tecs.Config, rounds, iters, rare int) {
	arena := tecs.NewArena(make([]byte, cfg.ArenaBytes))
	pos := tecs.FactoryNewComponent[position]()
	vel := tecs.FactoryNewComponent[velocity]()

	for round := range rounds {
		arena.Reset()
		engine, err := tecs.Factory.NewEngine(arena, table.Factory.NewSchema(), cfg, tecs.WithLogger(log))
		if err != nil {
			log.Fatal("build engine", zap.Error(err))
		}

		entities, err := engine.NewEntities(cfg.MaxEntities)
		if err != nil {
			log.Fatal("populate engine", zap.Error(err))
		}
		stride := max(1, len(entities)/max(1, rare))
		for i, e := range entities {
			pos.Add(engine, e)
			if i%stride == 0 && vel.Count(engine) < rare {
				vel.AddWithValue(engine, e, velocity{X: 1, Y: 1})
			}
		}

		for range iters {
			tecs.ForEach2(engine, pos, vel, func(_ tecs.Entity, p *position, v *velocity) {
				p.X += v.X
				p.Y += v.Y
			})
		}

		stats := engine.Stats()
		log.Debug("round complete",
			zap.Int("round", round),
			zap.Uint64("scanned", stats.Scanned),
			zap.Uint64("visited", stats.Visited),
			zap.Int("arena_used", stats.ArenaUsed),
		)
	}
}
