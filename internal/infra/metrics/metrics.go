package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_turns_total",
		Help: "Dialogue turns processed, by stage the turn started in and outcome.",
	}, []string{"stage", "outcome"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_requests_total",
		Help: "Calls to the catalog REST API.",
	}, []string{"kind", "op", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_gateway_request_seconds",
		Help:    "Latency of catalog REST API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "op"})

	BusyRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_busy_rejections_total",
		Help: "Submissions rejected because the session was still processing a turn.",
	})

	Ratings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_ratings_total",
		Help: "Satisfaction ratings received.",
	}, []string{"score"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveGateway(kind, op string, d time.Duration, err error) {
	GatewayRequests.WithLabelValues(kind, op, outcome(err)).Inc()
	GatewayLatency.WithLabelValues(kind, op).Observe(d.Seconds())
}

func ObserveTurn(stage string, failed bool) {
	o := "ok"
	if failed {
		o = "error"
	}
	Turns.WithLabelValues(stage, o).Inc()
}
