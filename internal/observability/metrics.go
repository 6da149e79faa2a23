package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/workoutlog/internal/domain"
)

var (
	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workoutlog",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record persisted to Postgres.",
	})
	recordsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workoutlog",
		Subsystem: "records",
		Name:      "created_total",
		Help:      "Records created, labelled by kind.",
	}, []string{"kind"})
	authOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workoutlog",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts, labelled by flow and outcome.",
	}, []string{"flow", "outcome"})
)

func init() {
	prometheus.MustRegister(recordPersistGauge, recordsCreated, authOutcomes)
}

// RecordPersisted updates the persistence watermark gauge and the per-kind counter.
func RecordPersisted(kind domain.Kind, ts time.Time) {
	recordsCreated.WithLabelValues(string(kind)).Inc()
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}

// AuthAttempt counts an authentication attempt for the given flow
// ("login", "register", "guest") and outcome ("success", "failure").
func AuthAttempt(flow, outcome string) {
	authOutcomes.WithLabelValues(flow, outcome).Inc()
}
