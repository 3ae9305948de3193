// Package metrics provides in-memory runtime statistics for store
// operations.
package metrics

import (
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// MessagesAppended counts messages written, not calls.
	MessagesAppended int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count            int64
	Failures         int64
	TotalTimeMs      int64
	AvgTimeMs        float64
	MinTimeMs        int64
	MaxTimeMs        int64
	MessagesAppended int64
}

// Collector aggregates per-operation metrics. Safe for concurrent use.
type Collector struct {
	mu  sync.Mutex
	ops map[string]*OperationMetrics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{ops: make(map[string]*OperationMetrics)}
}

// Record adds one observation for op. messages is the number of messages the
// operation appended (0 for pure reads and no-ops).
func (c *Collector) Record(op string, d time.Duration, messages int, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: d, MaxTime: d}
		c.ops[op] = m
	}

	m.Count++
	if failed {
		m.Failures++
	}
	m.TotalTime += d
	if d < m.MinTime {
		m.MinTime = d
	}
	if d > m.MaxTime {
		m.MaxTime = d
	}
	m.MessagesAppended += int64(messages)
}

// Snapshot returns computed stats for all operations observed so far.
func (c *Collector) Snapshot() map[string]OperationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OperationSnapshot, len(c.ops))
	for op, m := range c.ops {
		s := OperationSnapshot{
			Count:            m.Count,
			Failures:         m.Failures,
			TotalTimeMs:      m.TotalTime.Milliseconds(),
			MinTimeMs:        m.MinTime.Milliseconds(),
			MaxTimeMs:        m.MaxTime.Milliseconds(),
			MessagesAppended: m.MessagesAppended,
		}
		if m.Count > 0 {
			s.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Count)
		}
		out[op] = s
	}
	return out
}
