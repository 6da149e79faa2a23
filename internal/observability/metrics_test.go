package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"example.com/workoutlog/internal/domain"
)

func gather(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestRecordPersistedUpdatesWatermarkAndCounter(t *testing.T) {
	ts := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	RecordPersisted(domain.KindWeighIn, ts)

	gauge := gather(t, "workoutlog_persistence_last_record_persisted_timestamp_seconds")
	require.NotNil(t, gauge)
	require.Equal(t, float64(ts.Unix()), gauge.GetMetric()[0].GetGauge().GetValue())

	counter := gather(t, "workoutlog_records_created_total")
	require.NotNil(t, counter)

	var found bool
	for _, metric := range counter.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "kind" && label.GetValue() == string(domain.KindWeighIn) {
				found = true
				require.GreaterOrEqual(t, metric.GetCounter().GetValue(), float64(1))
			}
		}
	}
	require.True(t, found, "expected a weigh_in sample on the created counter")
}

func TestRecordPersistedIgnoresZeroTimestampForWatermark(t *testing.T) {
	ts := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	RecordPersisted(domain.KindCardio, ts)
	RecordPersisted(domain.KindCardio, time.Time{})

	gauge := gather(t, "workoutlog_persistence_last_record_persisted_timestamp_seconds")
	require.NotNil(t, gauge)
	require.Equal(t, float64(ts.Unix()), gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestAuthAttemptCountsByFlowAndOutcome(t *testing.T) {
	AuthAttempt("login", "failure")

	counter := gather(t, "workoutlog_auth_attempts_total")
	require.NotNil(t, counter)

	var found bool
	for _, metric := range counter.GetMetric() {
		labels := map[string]string{}
		for _, label := range metric.GetLabel() {
			labels[label.GetName()] = label.GetValue()
		}
		if labels["flow"] == "login" && labels["outcome"] == "failure" {
			found = true
		}
	}
	require.True(t, found)
}
