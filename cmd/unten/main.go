package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/cars"
	"nyiyui.ca/hato/unten/config"
	"nyiyui.ca/hato/unten/kujo"
	"nyiyui.ca/hato/unten/metrics"
	"nyiyui.ca/hato/unten/sim"
	"nyiyui.ca/hato/unten/state"
	"nyiyui.ca/hato/unten/telemetry"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	layoutName := flag.String("layout", "yard", "layout to run (yard or straight)")
	demo := flag.Bool("demo", false, "use the built-in demo activity instead of the data files")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	conf, err := config.Load()
	if err != nil {
		zap.S().Fatalf("config: %s", err)
	}

	var g *track.Graph
	switch *layoutName {
	case "yard":
		g, err = track.TestbenchYard()
	case "straight":
		g, err = track.Testbench1()
	default:
		zap.S().Fatalf("unknown layout %q", *layoutName)
	}
	if err != nil {
		zap.S().Fatalf("layout %s: %s", *layoutName, err)
	}
	if *demo && *layoutName != "yard" {
		zap.S().Fatalf("-demo places trains on the yard layout")
	}

	var carsData cars.Data
	var activity sim.Activity
	var loader sim.VehicleLoader
	if *demo {
		carsData, loader, activity = demoWorld(g)
	} else {
		carsData, err = conf.LoadCars()
		if err != nil {
			zap.S().Fatalf("%s (or pass -demo)", err)
		}
		activity, err = conf.LoadActivity()
		if err != nil {
			zap.S().Fatalf("%s (or pass -demo)", err)
		}
		loader = demoLoader()
	}

	s, err := sim.New(g, carsData, loader, activity)
	if err != nil {
		zap.S().Fatalf("build simulation: %s", err)
	}

	var store *state.Store
	if conf.StatePath != "" {
		store = state.NewStore(conf.StatePath)
		err := store.Load(s)
		switch {
		case errors.Is(err, state.ErrNoState):
			zap.S().Infow("no saved state, starting fresh", "path", conf.StatePath)
		case err != nil:
			zap.S().Fatalf("load state: %s", err)
		}
	}

	if conf.MetricsAddr != "" {
		c := metrics.NewCollector()
		s.Metrics = c
		c.Serve(conf.MetricsAddr)
	}
	if conf.SSEAddr != "" {
		kujoServer := kujo.NewServer(s)
		go func() {
			zap.S().Infow("starting kujo", "addr", conf.SSEAddr)
			err := http.ListenAndServe(conf.SSEAddr, kujoServer)
			zap.S().Errorw("kujo server stopped", "err", err)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.NATSURL != "" {
		pub, err := telemetry.NewPublisher(conf.NATSURL, "unten", conf.SnapshotSample)
		if err != nil {
			zap.S().Fatalf("telemetry: %s", err)
		}
		defer pub.Close()
		go pub.Run(ctx, s.Snapshots, s.Events)
	}

	r := sim.NewRunner(s, conf.TickInterval)
	if *demo {
		// ease the player out of the yard so the demo shows movement
		r.Do(func(s *sim.Simulator) {
			s.Player.TargetSpeed = 2
		})
	}
	r.Run(ctx)

	if store != nil {
		if err := store.Save(s); err != nil {
			zap.S().Errorw("save state", "err", err)
		}
	}
}

// demoLoader resolves the wagon names used by the demo and sample data.
func demoLoader() sim.MapLoader {
	return sim.MapLoader{
		"de10/de10.wag":   train.Car{Length: 14.2, Engine: true},
		"wamu80/wamu.wag": train.Car{Length: 7.9},
		"taki/taki.wag":   train.Car{Length: 12.1},
	}
}

// demoWorld is a self-contained activity on the yard layout: the player's
// locomotive with two wagons on the main, one wagon parked on the siding.
func demoWorld(g *track.Graph) (cars.Data, sim.VehicleLoader, sim.Activity) {
	player := uuid.MustParse("7a8f50de-71c3-40dd-a9ea-1c9ffd8cdd41")
	parked := uuid.MustParse("5e08cf1a-9a0e-48fb-a276-92a6347a0e84")
	data := cars.Data{Consists: map[uuid.UUID]cars.Consist{
		player: {
			Comment: "local freight",
			Vehicles: []cars.Vehicle{
				{Comment: "DE10", Folder: "de10", File: "de10.wag", Engine: true},
				{Comment: "wamu 1", Folder: "wamu80", File: "wamu.wag"},
				{Comment: "wamu 2", Folder: "wamu80", File: "wamu.wag"},
			},
		},
		parked: {
			Comment: "parked tanker",
			Vehicles: []cars.Vehicle{
				{Comment: "taki", Folder: "taki", File: "taki.wag"},
			},
		},
	}}
	activity := sim.Activity{
		Player: sim.Placement{
			Comment: "local freight",
			Consist: player,
			Node:    g.MustLookup("A"),
			Offset:  150,
			Ahead:   true,
		},
		Statics: []sim.Placement{
			{
				Comment: "parked tanker",
				Consist: parked,
				Node:    g.MustLookup("C"),
				Offset:  200,
				Ahead:   true,
			},
		},
	}
	return data, demoLoader(), activity
}
