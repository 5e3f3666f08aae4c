package includes

import (
	"time"
)

func (cm *CacheManager) recordCacheHit() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheHits++
}

func (cm *CacheManager) recordCacheMiss() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheMisses++
}

// GetPerformanceStats returns hit/miss counters since the last reset
func (cm *CacheManager) GetPerformanceStats() map[string]interface{} {
	cm.stats.mutex.RLock()
	defer cm.stats.mutex.RUnlock()

	hitRate := 0.0
	if cm.stats.TotalRequests > 0 {
		hitRate = float64(cm.stats.CacheHits) / float64(cm.stats.TotalRequests) * 100
	}

	return map[string]interface{}{
		"total_requests": cm.stats.TotalRequests,
		"cache_hits":     cm.stats.CacheHits,
		"cache_misses":   cm.stats.CacheMisses,
		"hit_rate":       hitRate,
		"uptime_seconds": time.Since(cm.stats.LastResetTime).Seconds(),
		"last_reset":     cm.stats.LastResetTime.Format(time.RFC3339),
	}
}

// ResetPerformanceStats resets all performance counters
func (cm *CacheManager) ResetPerformanceStats() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()

	cm.stats.TotalRequests = 0
	cm.stats.CacheHits = 0
	cm.stats.CacheMisses = 0
	cm.stats.LastResetTime = time.Now()
}
