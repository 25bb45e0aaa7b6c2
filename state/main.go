// Package state saves and restores a running simulation to a buntdb file,
// so an activity can be closed and resumed. Each train is one key; the
// clock, the player train, and every junction's route get keys of their
// own.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/sim"
	"nyiyui.ca/hato/unten/track"
	"nyiyui.ca/hato/unten/train"
)

// ErrNoState is returned by Load when the database holds no saved trains,
// i.e. nothing was ever saved to it.
var ErrNoState = errors.New("no saved state")

type Car struct {
	Comment string  `json:"comment"`
	Length  float64 `json:"length"`
	Engine  bool    `json:"engine"`
	Flipped bool    `json:"flipped"`
}

// Cursor is a saved track position. Only the front cursor is stored; the
// rear is rederived from the car lengths on restore.
type Cursor struct {
	Node   track.NodeI `json:"node"`
	Offset float64     `json:"offset"`
	Ahead  bool        `json:"ahead"`
}

type Train struct {
	ID          uuid.UUID `json:"id"`
	Comment     string    `json:"comment"`
	Cars        []Car     `json:"cars"`
	Front       Cursor    `json:"front"`
	Speed       float64   `json:"speed"`
	TargetSpeed float64   `json:"targetSpeed"`
}

func fromTrain(t *train.Train) Train {
	st := Train{
		ID:      t.ID,
		Comment: t.Comment,
		Cars:    make([]Car, 0, len(t.Cars)),
		Front: Cursor{
			Node:   t.Front.Node,
			Offset: t.Front.Offset,
			Ahead:  t.Front.Ahead,
		},
		Speed:       t.Speed,
		TargetSpeed: t.TargetSpeed,
	}
	for _, c := range t.Cars {
		st.Cars = append(st.Cars, Car{
			Comment: c.Comment,
			Length:  c.Length,
			Engine:  c.Engine,
			Flipped: c.Flipped,
		})
	}
	return st
}

func (st Train) restore(g *track.Graph) (*train.Train, error) {
	if len(st.Cars) == 0 {
		return nil, fmt.Errorf("train %s: no cars", st.ID)
	}
	cs := make([]*train.Car, 0, len(st.Cars))
	for _, c := range st.Cars {
		cs = append(cs, &train.Car{
			Comment: c.Comment,
			Length:  c.Length,
			Engine:  c.Engine,
			Flipped: c.Flipped,
		})
	}
	front, err := track.NewTraveller(g, st.Front.Node, st.Front.Offset, st.Front.Ahead)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", st.ID, err)
	}
	t := &train.Train{
		ID:          st.ID,
		Comment:     st.Comment,
		Cars:        cs,
		Front:       front,
		Speed:       st.Speed,
		TargetSpeed: st.TargetSpeed,
		MaxAccel:    0.5,
		MaxBrake:    1.0,
	}
	t.RepositionRear()
	return t, nil
}

func trainKey(id uuid.UUID) string { return fmt.Sprintf("train:%s:data", id) }

func switchKey(ni track.NodeI) string { return fmt.Sprintf("switch:%d:route", ni) }

// Store reads and writes one state database. The file is opened per call,
// so a Store can outlive crashes of either side.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the full simulation state in one transaction, dropping
// trains that no longer exist (coupled away since the last save).
func (st *Store) Save(s *sim.Simulator) error {
	db, err := buntdb.Open(st.path)
	if err != nil {
		return err
	}
	defer db.Close()
	err = db.Update(func(tx *buntdb.Tx) error {
		live := map[string]bool{}
		for _, t := range s.Trains {
			live[trainKey(t.ID)] = true
		}
		var stale []string
		err := tx.Ascend("", func(key, _ string) bool {
			if strings.HasPrefix(key, "train:") && !live[key] {
				stale = append(stale, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if _, err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, t := range s.Trains {
			data, err := json.Marshal(fromTrain(t))
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(trainKey(t.ID), string(data), nil); err != nil {
				return err
			}
		}
		if _, _, err := tx.Set("sim:clock", strconv.FormatFloat(s.Clock, 'g', -1, 64), nil); err != nil {
			return err
		}
		if s.Player != nil {
			if _, _, err := tx.Set("sim:player", s.Player.ID.String(), nil); err != nil {
				return err
			}
		}
		for ni := range s.Graph.Nodes {
			n := &s.Graph.Nodes[ni]
			if n.Kind != track.KindJunction {
				continue
			}
			if _, _, err := tx.Set(switchKey(track.NodeI(ni)), strconv.Itoa(n.SelectedRoute), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	zap.S().Infow("saved state", "path", st.path, "trains", len(s.Trains), "clock", s.Clock)
	return nil
}

// Load replaces s's train set, clock, and switch routes with the saved
// state. Individual saved trains that fail to restore (e.g. after a route
// edit) are skipped with a log line; a database with no trains at all is
// ErrNoState.
func (st *Store) Load(s *sim.Simulator) error {
	db, err := buntdb.Open(st.path)
	if err != nil {
		return err
	}
	defer db.Close()

	var saved []Train
	var clock float64
	var player uuid.UUID
	routes := map[track.NodeI]int{}
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			switch {
			case key == "sim:clock":
				c, err := strconv.ParseFloat(value, 64)
				if err != nil {
					zap.S().Errorw("bad clock value", "value", value)
					return true
				}
				clock = c
			case key == "sim:player":
				id, err := uuid.Parse(value)
				if err != nil {
					zap.S().Errorw("bad player value", "value", value)
					return true
				}
				player = id
			case strings.HasPrefix(key, "switch:") && strings.HasSuffix(key, ":route"):
				ni, err := strconv.Atoi(key[7 : len(key)-6])
				if err != nil {
					zap.S().Errorw("bad switch key", "key", key)
					return true
				}
				r, err := strconv.Atoi(value)
				if err != nil || (r != 0 && r != 1) {
					zap.S().Errorw("bad route value", "key", key, "value", value)
					return true
				}
				routes[track.NodeI(ni)] = r
			case strings.HasPrefix(key, "train:") && strings.HasSuffix(key, ":data"):
				var t Train
				if err := json.Unmarshal([]byte(value), &t); err != nil {
					zap.S().Errorw("unmarshalling failed", "key", key, "err", err)
					return true
				}
				saved = append(saved, t)
			}
			return true
		})
	})
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return ErrNoState
	}

	for ni, r := range routes {
		if int(ni) >= len(s.Graph.Nodes) || s.Graph.Nodes[ni].Kind != track.KindJunction {
			zap.S().Errorw("saved route for non-junction node", "node", ni)
			continue
		}
		s.Graph.Nodes[ni].SelectedRoute = r
	}
	s.Trains = nil
	s.Player = nil
	for _, sv := range saved {
		t, err := sv.restore(s.Graph)
		if err != nil {
			zap.S().Errorw("skipping saved train", "err", err)
			continue
		}
		s.AddTrain(t)
		if t.ID == player {
			s.Player = t
		}
	}
	if len(s.Trains) == 0 {
		return fmt.Errorf("state at %s: every saved train failed to restore", st.path)
	}
	s.Clock = clock
	zap.S().Infow("loaded state", "path", st.path, "trains", len(s.Trains), "clock", clock)
	return nil
}
