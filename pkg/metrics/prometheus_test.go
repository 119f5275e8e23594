package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("cargotrack", reg)

	m.ValidationFailures.WithLabelValues("InvalidProgress").Inc()
	m.ValidationFailures.WithLabelValues("InvalidProgress").Inc()
	m.NotificationsSent.WithLabelValues("fake").Inc()

	require.Equal(t, 2.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("InvalidProgress")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("fake")))

	n, err := testutil.GatherAndCount(reg, "cargotrack_validation_failures_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNop_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		_ = Nop()
		_ = Nop()
	})
}
