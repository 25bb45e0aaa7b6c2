// Package kujo serves the simulation state over server-sent events, for
// browser dashboards. One stream carries per-tick snapshots, another the
// car event codes.
package kujo

import (
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/sim"
	"nyiyui.ca/hato/unten/train"
)

type Server struct {
	sim *sim.Simulator
	s   *sse.Server
}

func NewServer(simulator *sim.Simulator) *Server {
	s := &Server{
		sim: simulator,
		s:   sse.New(),
	}
	go s.forwardSnapshots()
	go s.forwardEvents()
	return s
}

func (s *Server) forwardSnapshots() {
	s.s.CreateStream("snapshot")
	defer s.s.RemoveStream("snapshot")
	ch := make(chan sim.Snapshot, 8)
	s.sim.Snapshots.Subscribe("kujo", ch)
	defer s.sim.Snapshots.Unsubscribe(ch)
	for snap := range ch {
		data, err := json.Marshal(snap)
		if err != nil {
			zap.S().Errorw("kujo: marshal snapshot", "err", err)
			continue
		}
		s.s.TryPublish("snapshot", &sse.Event{
			Data: data,
		})
	}
}

func (s *Server) forwardEvents() {
	s.s.CreateStream("event")
	defer s.s.RemoveStream("event")
	ch := make(chan train.Event, 8)
	s.sim.Events.Subscribe("kujo", ch)
	defer s.sim.Events.Unsubscribe(ch)
	for e := range ch {
		data, err := json.Marshal(map[string]any{
			"train": e.Train,
			"car":   e.CarI,
			"code":  e.Code,
		})
		if err != nil {
			zap.S().Errorw("kujo: marshal event", "err", err)
			continue
		}
		s.s.TryPublish("event", &sse.Event{
			Data: data,
		})
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.s.ServeHTTP(w, r)
}
