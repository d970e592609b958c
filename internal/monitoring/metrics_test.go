package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCalibration()
	m.RecordForecast(500)
	m.IncrementSnapshot()
	m.IncrementRateLimitIPBlock()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, 50.0, stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(1), stats["calibration_runs"])
	assert.Equal(t, int64(1), stats["forecast_runs"])
	assert.Equal(t, int64(500), stats["simulation_trials"])
	assert.Equal(t, int64(1), stats["snapshots_saved"])
	assert.Equal(t, int64(1), stats["rate_limit_ip_blocks"])
}

func TestMetricsResponseTimePercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	p50 := m.GetPercentileResponseTime(50)
	p99 := m.GetPercentileResponseTime(99)
	assert.LessOrEqual(t, p50, p99)
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestMetricsStatusCodeDistribution(t *testing.T) {
	m := NewMetrics()

	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(429)

	distribution := m.GetStatusCodeDistribution()
	assert.Equal(t, int64(2), distribution[200])
	assert.Equal(t, int64(1), distribution[429])
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.RecordForecast(100)
	m.IncrementRateLimitIPBlock()
	m.RecordResponseTime(5 * time.Millisecond)
	m.RecordRequestByStatus(200)

	m.Reset()

	stats := m.GetStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Equal(t, int64(0), stats["forecast_runs"])
	assert.Equal(t, int64(0), stats["rate_limit_ip_blocks"])
	assert.Empty(t, m.GetStatusCodeDistribution())
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(50))
}
