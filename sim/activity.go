package sim

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/cars"
	"nyiyui.ca/hato/unten/notify"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

// VehicleLoader resolves a consist vehicle description to a loaded car.
// Loading happens outside this core (wagon file parsing); errors are
// per-vehicle and non-fatal.
type VehicleLoader interface {
	Load(v cars.Vehicle) (*train.Car, error)
}

// MapLoader is a VehicleLoader backed by a fixed table, keyed
// "folder/file". Used by tests and the demo binary.
type MapLoader map[string]train.Car

func (m MapLoader) Load(v cars.Vehicle) (*train.Car, error) {
	c, ok := m[v.Folder+"/"+v.File]
	if !ok {
		return nil, fmt.Errorf("no wagon %s/%s", v.Folder, v.File)
	}
	c.Comment = v.Comment
	return &c, nil
}

// Placement puts a consist's front cursor onto the graph.
type Placement struct {
	Comment string      `json:"comment"`
	Consist uuid.UUID   `json:"consist"`
	Node    track.NodeI `json:"node"`
	Offset  float64     `json:"offset"`
	Ahead   bool        `json:"ahead"`
}

// Activity is the initial world state: the player train plus any static
// consists parked on the route.
type Activity struct {
	Player  Placement   `json:"player"`
	Statics []Placement `json:"statics"`
}

// New builds a Simulator from activity data. Wagon load failures are
// skipped with a log line; a locomotive failing to load fails the whole
// build, as does a player consist without any locomotive. Static consists
// that fail to build are skipped entirely.
func New(g *track.Graph, data cars.Data, loader VehicleLoader, activity Activity) (*Simulator, error) {
	s := &Simulator{Graph: g}
	s.eventsS, s.Events = notify.NewHub[train.Event]("sim events")
	s.snapshotsS, s.Snapshots = notify.NewHub[Snapshot]("sim snapshots")
	g.AlignSwitchDefaults()

	consist, ok := data.Consists[activity.Player.Consist]
	if !ok {
		return nil, fmt.Errorf("player: consist %s not in cars data", activity.Player.Consist)
	}
	if !consist.HasEngine() {
		return nil, fmt.Errorf("player consist %s has no locomotive", activity.Player.Consist)
	}
	player, err := buildTrain(g, data, loader, activity.Player)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	s.Player = player
	s.AddTrain(player)

	for _, pl := range activity.Statics {
		t, err := buildTrain(g, data, loader, pl)
		if err != nil {
			zap.S().Errorw("skipping static consist", "placement", pl.Comment, "err", err)
			continue
		}
		s.AddTrain(t)
	}
	return s, nil
}

func buildTrain(g *track.Graph, data cars.Data, loader VehicleLoader, pl Placement) (*train.Train, error) {
	consist, ok := data.Consists[pl.Consist]
	if !ok {
		return nil, fmt.Errorf("consist %s not in cars data", pl.Consist)
	}
	cs := make([]*train.Car, 0, len(consist.Vehicles))
	for _, v := range consist.Vehicles {
		c, err := loader.Load(v)
		if err != nil {
			// a lost wagon degrades the consist; a lost locomotive
			// would leave it unable to move
			if v.Engine {
				return nil, fmt.Errorf("locomotive %q: %w", v.Comment, err)
			}
			zap.S().Warnw("skipping vehicle",
				"consist", pl.Consist,
				"vehicle", v.Comment,
				"err", err)
			continue
		}
		c.Engine = v.Engine
		if v.Flip {
			c.Flipped = !c.Flipped
		}
		cs = append(cs, c)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("consist %s: every vehicle failed to load", pl.Consist)
	}
	front, err := track.NewTraveller(g, pl.Node, pl.Offset, pl.Ahead)
	if err != nil {
		return nil, fmt.Errorf("placement: %w", err)
	}
	comment := pl.Comment
	if comment == "" {
		comment = consist.Comment
	}
	return train.New(comment, cs, front), nil
}
