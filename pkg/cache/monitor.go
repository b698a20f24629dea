package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MonitorConfig 监控配置
type MonitorConfig struct {
	// 监控间隔
	Interval time.Duration

	// 最低命中率，至少有 MinLookups 次查询后才检查
	HitRateMin float64
	MinLookups int

	// 最大内存使用(字节)
	MemoryUsageMax int64

	// 告警回调
	AlertCallback func(alert string, stats CacheStats)
}

// DefaultMonitorConfig 默认监控配置
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:       5 * time.Minute,
		HitRateMin:     0.2,
		MinLookups:     100,
		MemoryUsageMax: 64 << 20,
	}
}

// Monitor 定期记录缓存统计并在超过阈值时告警
type Monitor struct {
	cache    *MemoryCache
	config   MonitorConfig
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMonitor 创建缓存监控服务
func NewMonitor(cache *MemoryCache, config MonitorConfig, logger *zap.Logger) *Monitor {
	def := DefaultMonitorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MinLookups <= 0 {
		config.MinLookups = def.MinLookups
	}

	m := &Monitor{
		cache:  cache,
		config: config,
		logger: logger.Named("cache"),
		stop:   make(chan struct{}),
	}
	cache.SetEvictionCallback(m.handleEviction)
	return m
}

// Start 启动监控服务
func (m *Monitor) Start() {
	go m.loop()
}

// Stop 停止监控服务
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-m.stop:
			return
		}
	}
}

// Collect 记录一次统计并检查阈值，返回触发的告警
func (m *Monitor) Collect() []string {
	stats := m.cache.GetStats()
	m.logger.Info("cache stats",
		zap.Int("size", stats.Size),
		zap.Int64("memory_bytes", stats.MemoryUsage),
		zap.Float64("hit_rate", stats.HitRate),
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses),
		zap.Int("evictions", stats.Evictions))

	var alerts []string
	if m.config.HitRateMin > 0 && stats.Hits+stats.Misses >= m.config.MinLookups &&
		stats.HitRate < m.config.HitRateMin {
		alerts = append(alerts, "low hit rate")
	}
	if m.config.MemoryUsageMax > 0 && stats.MemoryUsage > m.config.MemoryUsageMax {
		alerts = append(alerts, "high memory usage")
	}
	for _, alert := range alerts {
		m.alert(alert, stats)
	}
	return alerts
}

// handleEviction 在缓存锁内调用，只做日志
func (m *Monitor) handleEviction(key string, entry CacheEntry) {
	m.logger.Debug("cache entry evicted",
		zap.String("key", key),
		zap.Int("accesses", entry.AccessCount),
		zap.Int("bytes", len(entry.Value)))
}

func (m *Monitor) alert(message string, stats CacheStats) {
	m.logger.Warn("cache alert",
		zap.String("alert", message),
		zap.Float64("hit_rate", stats.HitRate),
		zap.Int64("memory_bytes", stats.MemoryUsage))

	if m.config.AlertCallback != nil {
		m.config.AlertCallback(message, stats)
	}
}
