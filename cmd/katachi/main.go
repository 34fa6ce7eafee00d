package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/edwinsyarief/katachi"
	"github.com/edwinsyarief/katachi/internal/config"
	"github.com/edwinsyarief/katachi/internal/script"
)

// bounds is the half extent of the square particles bounce around in.
const bounds = 100.0

// Clock is the world resource systems read the simulation time from.
type Clock struct {
	Tick int
	DT   float64 // seconds per tick
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "data/katachi.toml"
	if p := os.Getenv("KATACHI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := katachi.NewContext(
		katachi.WithLogger(log),
		katachi.WithInitialCapacity(cfg.World.InitialCapacity),
	)

	var callbacks config.Callbacks = builtins()
	if cfg.Paths.Scripts != "" {
		engine, err := script.NewEngine(ctx, cfg.Paths.Scripts, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		callbacks = config.Chain{callbacks, engine}
	}

	defs, err := config.LoadDefinitions(cfg.Paths.Definitions)
	if err != nil {
		return err
	}
	if err := defs.Apply(ctx, callbacks); err != nil {
		return fmt.Errorf("apply definitions: %w", err)
	}
	log.Info("definitions applied",
		zap.Strings("components", ctx.ComponentNames()),
		zap.Strings("entity_types", ctx.EntityTypeNames()),
		zap.Strings("systems", ctx.SystemNames()))

	for _, s := range cfg.Spawn {
		for range s.Count {
			e, err := ctx.MakeEntity(s.EntityType)
			if err != nil {
				return fmt.Errorf("spawn %s: %w", s.EntityType, err)
			}
			if s.Inactive {
				if err := ctx.Deactivate(e); err != nil {
					return err
				}
			}
		}
	}

	world := ctx.PeekWorld()
	clock := &Clock{DT: cfg.Run.TickRate.Seconds()}
	if _, err := world.Resources().Add(clock); err != nil {
		return err
	}
	katachi.Subscribe(world.Events(), func(ev katachi.DelayedFlushed) {
		if ev.Applied > 0 {
			log.Debug("delayed operations applied", zap.Int("queued", ev.Queued), zap.Int("applied", ev.Applied))
		}
	})

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Run.TickRate)
	defer ticker.Stop()

	log.Info("simulation started",
		zap.Stringer("world", world.ID()),
		zap.Int("entities", world.EntityCount()),
		zap.Duration("tick_rate", cfg.Run.TickRate))

	const reportInterval = 60
	for tick := 1; cfg.Run.Ticks == 0 || tick <= cfg.Run.Ticks; tick++ {
		select {
		case <-ticker.C:
			start := time.Now()
			clock.Tick = tick
			if err := ctx.RunSystems(); err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
			if tick%reportInterval == 0 {
				log.Info("tick",
					zap.Int("tick", tick),
					zap.Int("entities", world.EntityCount()),
					zap.Duration("took", time.Since(start)))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
	log.Info("simulation finished", zap.Int("entities", world.EntityCount()))
	return nil
}

// builtins returns the Go callbacks the definitions file can name.
func builtins() *config.CallbackSet {
	return config.NewCallbackSet().
		RegisterComponent("random_position", func(_ katachi.Entity, c unsafe.Pointer, _ any) {
			*(*mgl64.Vec2)(c) = mgl64.Vec2{rand.Float64()*2*bounds - bounds, rand.Float64()*2*bounds - bounds}
		}).
		RegisterComponent("random_velocity", func(_ katachi.Entity, c unsafe.Pointer, _ any) {
			angle := rand.Float64() * 2 * math.Pi
			*(*mgl64.Vec2)(c) = mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{10, 0})
		}).
		RegisterUpdate("integrate", func(list katachi.ComponentList, count int, _ any) {
			clock, _ := katachi.GetResource[Clock](list.World().Resources())
			if clock == nil {
				return
			}
			pos := katachi.ComponentsAs[mgl64.Vec2](list, "Position")
			vel := katachi.ComponentsAs[mgl64.Vec2](list, "Velocity")
			for i := range count {
				pos[i] = pos[i].Add(vel[i].Mul(clock.DT))
			}
		}).
		RegisterUpdate("bounce", func(list katachi.ComponentList, count int, _ any) {
			pos := katachi.ComponentsAs[mgl64.Vec2](list, "Position")
			vel := katachi.ComponentsAs[mgl64.Vec2](list, "Velocity")
			for i := range count {
				for axis := range 2 {
					if (pos[i][axis] > bounds && vel[i][axis] > 0) || (pos[i][axis] < -bounds && vel[i][axis] < 0) {
						vel[i][axis] = -vel[i][axis]
					}
				}
			}
		})
}
