package metrics

import "sync/atomic"

// MetricID identifies a single counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginThrottled
	MetricLoginLockedOut
	MetricLockoutTriggered
	MetricLogout
	MetricSessionCreated
	MetricResetRequest
	MetricResetSuccess
	MetricResetFailure
	MetricConfirmRequest
	MetricConfirmSuccess
	MetricConfirmFailure
	MetricMailEnqueued
	MetricMailDropped

	MetricIDCount
)

// Config controls metric collection. When Enabled is false every operation
// is a no-op and Snapshot returns empty maps.
type Config struct {
	Enabled bool
}

// Metrics holds lock-free counters indexed by [MetricID].
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	return snap
}
