package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMonitorCollectAlerts(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(10, 0)
	defer cache.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	var alerts []string
	monitor := NewMonitor(cache, MonitorConfig{
		HitRateMin:     0.5,
		MinLookups:     4,
		MemoryUsageMax: 16,
		AlertCallback:  func(alert string, _ CacheStats) { alerts = append(alerts, alert) },
	}, zap.New(core))

	require.NoError(t, cache.Set(ctx, "k", []byte("0123456789abcdefXYZ")))
	for i := 0; i < 4; i++ {
		_, _, _ = cache.Get(ctx, fmt.Sprintf("miss%d", i))
	}

	got := monitor.Collect()
	assert.Equal(t, []string{"low hit rate", "high memory usage"}, got)
	assert.Equal(t, got, alerts)
	assert.Equal(t, 1, logs.FilterMessage("cache stats").Len())
	assert.Equal(t, 2, logs.FilterMessage("cache alert").Len())
}

func TestMonitorQuietBelowMinLookups(t *testing.T) {
	cache, _ := newTestCache(10, 0)
	defer cache.Close()

	monitor := NewMonitor(cache, MonitorConfig{HitRateMin: 0.9, MinLookups: 100}, zap.NewNop())
	_, _, _ = cache.Get(context.Background(), "missing")
	assert.Empty(t, monitor.Collect())
}

func TestMonitorLogsEvictions(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(1, 0)
	defer cache.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	monitor := NewMonitor(cache, MonitorConfig{Interval: time.Hour}, zap.New(core))
	monitor.Start()
	defer monitor.Stop()

	require.NoError(t, cache.Set(ctx, "a", []byte("1")))
	require.NoError(t, cache.Set(ctx, "b", []byte("2")))

	evicted := logs.FilterMessage("cache entry evicted").All()
	require.Len(t, evicted, 1)
	assert.Equal(t, "a", evicted[0].ContextMap()["key"])

	monitor.Stop()
}
