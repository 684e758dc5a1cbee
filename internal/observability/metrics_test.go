package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrementPerLabel(t *testing.T) {
	before := testutil.ToFloat64(logsSavedCounter.WithLabelValues("A"))
	RecordLogSaved("A")
	RecordLogSaved("A")
	require.Equal(t, before+2, testutil.ToFloat64(logsSavedCounter.WithLabelValues("A")))

	before = testutil.ToFloat64(badgesUnlockedCounter.WithLabelValues("first-workout"))
	RecordBadgeUnlocked("first-workout")
	require.Equal(t, before+1, testutil.ToFloat64(badgesUnlockedCounter.WithLabelValues("first-workout")))

	before = testutil.ToFloat64(syncQuarantinedCounter.WithLabelValues("saveLog"))
	RecordSyncQuarantined("saveLog")
	require.Equal(t, before+1, testutil.ToFloat64(syncQuarantinedCounter.WithLabelValues("saveLog")))

	before = testutil.ToFloat64(cacheHitCounter.WithLabelValues("gamification"))
	RecordCacheHit("gamification")
	require.Equal(t, before+1, testutil.ToFloat64(cacheHitCounter.WithLabelValues("gamification")))
}

func TestXPAwardedIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(xpAwardedCounter)
	RecordXPAwarded(0)
	RecordXPAwarded(-5)
	require.Equal(t, before, testutil.ToFloat64(xpAwardedCounter))

	RecordXPAwarded(40)
	require.Equal(t, before+40, testutil.ToFloat64(xpAwardedCounter))
}

func TestDrainWatermark(t *testing.T) {
	RecordDrainFinished(time.Time{})

	ts := time.Date(2024, 5, 14, 22, 0, 0, 0, time.UTC)
	RecordDrainFinished(ts)

	metric := &dto.Metric{}
	require.NoError(t, lastDrainGauge.Write(metric))
	gauge := metric.GetGauge()
	require.NotNil(t, gauge)
	require.Equal(t, float64(ts.Unix()), gauge.GetValue())
}
