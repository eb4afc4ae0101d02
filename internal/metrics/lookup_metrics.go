// Package metrics tracks in-process counters and latencies for card lookups.
package metrics

import (
	"sync/atomic"
	"time"
)

// LookupMetrics records outcomes of card lookup requests.
type LookupMetrics struct {
	Latency *Histogram

	requests  atomic.Uint64
	failures  atomic.Uint64
	notFound  atomic.Uint64
	cacheHits atomic.Uint64
	startTime time.Time
}

// NewLookupMetrics creates an empty collector.
func NewLookupMetrics() *LookupMetrics {
	return &LookupMetrics{
		Latency:   NewHistogram(1000),
		startTime: time.Now(),
	}
}

// ObserveLookup records one completed lookup request.
func (m *LookupMetrics) ObserveLookup(d time.Duration, err error, notFound bool) {
	m.requests.Add(1)
	m.Latency.Record(d)
	if err != nil {
		m.failures.Add(1)
		if notFound {
			m.notFound.Add(1)
		}
	}
}

// ObserveCacheHit records an image served from the cache without a request.
func (m *LookupMetrics) ObserveCacheHit() {
	m.cacheHits.Add(1)
}

// LookupSnapshot is a serializable copy of LookupMetrics.
type LookupSnapshot struct {
	Requests      uint64  `json:"requests"`
	Failures      uint64  `json:"failures"`
	NotFound      uint64  `json:"not_found"`
	CacheHits     uint64  `json:"cache_hits"`
	Latency       Summary `json:"latency"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Snapshot returns the current values.
func (m *LookupMetrics) Snapshot() LookupSnapshot {
	return LookupSnapshot{
		Requests:      m.requests.Load(),
		Failures:      m.failures.Load(),
		NotFound:      m.notFound.Load(),
		CacheHits:     m.cacheHits.Load(),
		Latency:       m.Latency.Summary(),
		UptimeSeconds: time.Since(m.startTime).Seconds(),
	}
}
