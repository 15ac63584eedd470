package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arcadelab/relay/internal/domain"
	"github.com/arcadelab/relay/internal/event"
)

// Recorder turns domain events into prometheus metrics. It is the only
// event-bus consumer the relay ships with.
type Recorder struct {
	joins       prometheus.Counter
	leaves      prometheus.Counter
	relayed     prometheus.Counter
	submissions prometheus.Counter
	joined      prometheus.Gauge
}

// NewRecorder registers the relay metrics with reg and subscribes the
// recorder to the bus.
func NewRecorder(eb *event.Bus, reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)

	r := &Recorder{
		joins: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_joins_total",
			Help: "Completed join handshakes.",
		}),
		leaves: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_leaves_total",
			Help: "Joined sessions that disconnected.",
		}),
		relayed: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Application payloads forwarded to a room.",
		}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "leaderboard_submissions_total",
			Help: "Accepted leaderboard submissions.",
		}),
		joined: f.NewGauge(prometheus.GaugeOpts{
			Name: "relay_joined_sessions",
			Help: "Sessions currently joined to a room.",
		}),
	}

	eb.Subscribe(domain.EventNameSessionJoined, func(context.Context, event.Event) error {
		r.joins.Inc()
		r.joined.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameSessionLeft, func(context.Context, event.Event) error {
		r.leaves.Inc()
		r.joined.Dec()
		return nil
	})
	eb.Subscribe(domain.EventNameMessageRelayed, func(context.Context, event.Event) error {
		r.relayed.Inc()
		return nil
	})
	eb.Subscribe(domain.EventNameScoreSubmitted, func(context.Context, event.Event) error {
		r.submissions.Inc()
		return nil
	})

	return r
}
