// Package metrics provides in-memory runtime statistics for the aggregation
// pipeline.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpReviews     = "source_reviews"
	OpWebsite     = "source_website"
	OpSEO         = "source_seo"
	OpLLMGenerate = "llm_generate"
	OpStoreWrite  = "store_write"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// Record records one timing observation for an operation.
func (c *Collector) Record(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}

	m.Count++
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Time records the duration of fn under the given operation name.
func (c *Collector) Time(op string, fn func()) {
	start := time.Now()
	fn()
	c.Record(op, time.Since(start))
}

// Snapshot returns a point-in-time view of all recorded operations, keyed by
// operation name. Operations with no observations are absent.
func (c *Collector) Snapshot() map[string]OperationSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]OperationSnapshot, len(c.ops))
	for op, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		out[op] = OperationSnapshot{
			Count:       m.Count,
			TotalTimeMs: m.TotalTime.Milliseconds(),
			AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
			MinTimeMs:   m.MinTime.Milliseconds(),
			MaxTimeMs:   m.MaxTime.Milliseconds(),
		}
	}
	return out
}

// Uptime returns how long the collector has been alive.
func (c *Collector) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.startTime)
}
