package models

import "time"

// RuntimeMetrics is a JSON snapshot of request, cache and storage counters.
type RuntimeMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreOperations          uint64    `json:"store_operations"`
	AverageStoreDurationMs   float64   `json:"average_store_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
