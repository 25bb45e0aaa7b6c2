// Package telemetry streams simulation snapshots and car events over NATS
// for out-of-process consumers (dashboards, loggers). Entirely optional:
// the simulation never depends on it.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"nyiyui.ca/hato/unten/notify"
	"nyiyui.ca/hato/unten/sim"
	"nyiyui.ca/hato/unten/train"
)

type Publisher struct {
	nc      *nats.Conn
	prefix  string
	samples int
	// published counts successful publishes, for the shutdown log line.
	published int
}

// NewPublisher connects to url. prefix is the leading subject token
// (default "unten"). sampleEvery publishes every nth snapshot; events are
// never sampled.
func NewPublisher(url, prefix string, sampleEvery int) (*Publisher, error) {
	if prefix == "" {
		prefix = "unten"
	}
	if sampleEvery < 1 {
		sampleEvery = 1
	}
	nc, err := nats.Connect(url,
		nats.Name("unten"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			zap.S().Warnw("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.S().Infow("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{nc: nc, prefix: prefix, samples: sampleEvery}, nil
}

// Run consumes the simulation's snapshot and event hubs until ctx is
// cancelled. Publish failures are logged and dropped; telemetry never
// stalls the simulation.
func (p *Publisher) Run(ctx context.Context, snapshots *notify.Hub[sim.Snapshot], events *notify.Hub[train.Event]) {
	snapCh := make(chan sim.Snapshot, 8)
	snapshots.Subscribe("telemetry", snapCh)
	defer snapshots.Unsubscribe(snapCh)
	eventCh := make(chan train.Event, 8)
	events.Subscribe("telemetry", eventCh)
	defer events.Unsubscribe(eventCh)

	n := 0
	for {
		select {
		case <-ctx.Done():
			zap.S().Infow("telemetry stopped", "published", p.published)
			return
		case snap := <-snapCh:
			n++
			if n%p.samples != 0 {
				continue
			}
			p.publish(p.prefix+".snapshot", snap)
			for _, t := range snap.Trains {
				p.publish(fmt.Sprintf("%s.train.%s.position", p.prefix, subjectToken(t.Comment)), t)
			}
		case e := <-eventCh:
			p.publish(fmt.Sprintf("%s.train.%s.event", p.prefix, e.Train), e)
		}
	}
}

func (p *Publisher) publish(subject string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		zap.S().Errorw("telemetry marshal failed", "subject", subject, "err", err)
		return
	}
	if err := p.nc.Publish(subject, b); err != nil {
		zap.S().Warnw("telemetry publish failed", "subject", subject, "err", err)
		return
	}
	p.published++
}

func (p *Publisher) Close() {
	p.nc.Drain()
	p.nc.Close()
}

// subjectToken makes s safe as one NATS subject token.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
