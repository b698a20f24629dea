package cache

import (
	"context"
	"sync"
	"time"
)

// CacheStats 缓存统计信息
type CacheStats struct {
	// 当前缓存大小
	Size int

	// 内存使用量(字节)
	MemoryUsage int64

	// 命中率
	HitRate float64

	// 命中次数
	Hits int

	// 未命中次数
	Misses int

	// 淘汰次数（容量淘汰和过期清理）
	Evictions int
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Value       []byte
	Expiry      time.Time
	LastAccess  time.Time
	AccessCount int
}

// MemoryCache 进程内缓存，按最近访问时间淘汰
type MemoryCache struct {
	data             map[string]*CacheEntry
	maxEntries       int
	ttl              time.Duration
	mu               sync.Mutex
	evictionCallback func(string, CacheEntry)
	now              func() time.Time

	// 统计信息
	hits      int
	misses    int
	evictions int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache 创建缓存，ttl>0 时启动后台过期清理
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	cm := &MemoryCache{
		data:       make(map[string]*CacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if ttl > 0 {
		go cm.cleanupLoop()
	}

	return cm
}

// cleanupLoop 定期清理过期条目
func (cm *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(cm.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.CleanupExpired()
		case <-cm.stop:
			return
		}
	}
}

// CleanupExpired 删除所有过期条目，返回删除数量
func (cm *MemoryCache) CleanupExpired() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := cm.now()
	removed := 0
	for key, entry := range cm.data {
		if cm.expired(entry, now) {
			cm.remove(key, entry)
			removed++
		}
	}
	return removed
}

func (cm *MemoryCache) expired(entry *CacheEntry, now time.Time) bool {
	return cm.ttl > 0 && !now.Before(entry.Expiry)
}

// remove 需持有锁
func (cm *MemoryCache) remove(key string, entry *CacheEntry) {
	if cm.evictionCallback != nil {
		cm.evictionCallback(key, *entry)
	}
	delete(cm.data, key)
	cm.evictions++
}

// SetEvictionCallback 设置条目淘汰回调
func (cm *MemoryCache) SetEvictionCallback(callback func(string, CacheEntry)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.evictionCallback = callback
}

// Get 获取缓存条目
func (cm *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := cm.now()
	entry, ok := cm.data[key]
	if ok && cm.expired(entry, now) {
		cm.remove(key, entry)
		ok = false
	}

	// 更新统计信息
	if !ok {
		cm.misses++
		return nil, false, nil
	}
	cm.hits++
	entry.AccessCount++
	entry.LastAccess = now
	return entry.Value, true, nil
}

// Set 设置缓存条目
func (cm *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// 检查缓存大小
	if _, exists := cm.data[key]; !exists && len(cm.data) >= cm.maxEntries {
		cm.evictOldest()
	}

	now := cm.now()
	cm.data[key] = &CacheEntry{
		Value:      value,
		Expiry:     now.Add(cm.ttl),
		LastAccess: now,
	}
	return nil
}

// Delete 删除缓存条目
func (cm *MemoryCache) Delete(_ context.Context, key string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.data, key)
	return nil
}

// evictOldest 淘汰最久未访问的条目
func (cm *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest *CacheEntry

	for key, entry := range cm.data {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldestKey = key
			oldest = entry
		}
	}

	if oldest != nil {
		cm.remove(oldestKey, oldest)
	}
}

// GetStats 获取缓存统计信息
func (cm *MemoryCache) GetStats() CacheStats {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	stats := CacheStats{
		Size:      len(cm.data),
		Hits:      cm.hits,
		Misses:    cm.misses,
		Evictions: cm.evictions,
	}
	for key, entry := range cm.data {
		stats.MemoryUsage += int64(len(key) + len(entry.Value))
	}
	if total := cm.hits + cm.misses; total > 0 {
		stats.HitRate = float64(cm.hits) / float64(total)
	}
	return stats
}

// Clear 清空缓存
func (cm *MemoryCache) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.data = make(map[string]*CacheEntry)
	cm.hits = 0
	cm.misses = 0
	cm.evictions = 0
}

// Close 停止后台清理
func (cm *MemoryCache) Close() error {
	cm.stopOnce.Do(func() { close(cm.stop) })
	return nil
}
