package gdbstub

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks session-level operational statistics: wire traffic,
// breakpoint churn, stop-reply signals, and errors by category. It
// implements interfaces.Observer so it can be handed straight to a
// Session without an adapter.
type Metrics struct {
	PacketsSent     atomic.Uint64
	PacketsReceived atomic.Uint64
	BytesSent       atomic.Uint64
	BytesReceived   atomic.Uint64

	mu                sync.Mutex
	breakpointsSet     map[string]uint64
	breakpointsCleared map[string]uint64
	stopReplies        map[int]uint64
	errors             map[string]uint64

	StartTime atomic.Int64
}

// NewMetrics returns a ready-to-use Metrics, with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{
		breakpointsSet:     make(map[string]uint64),
		breakpointsCleared: make(map[string]uint64),
		stopReplies:        make(map[int]uint64),
		errors:             make(map[string]uint64),
	}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// ObservePacketSent implements interfaces.Observer.
func (m *Metrics) ObservePacketSent(bytes int) {
	m.PacketsSent.Add(1)
	m.BytesSent.Add(uint64(bytes))
}

// ObservePacketReceived implements interfaces.Observer.
func (m *Metrics) ObservePacketReceived(bytes int) {
	m.PacketsReceived.Add(1)
	m.BytesReceived.Add(uint64(bytes))
}

// ObserveBreakpointSet implements interfaces.Observer.
func (m *Metrics) ObserveBreakpointSet(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpointsSet[kind]++
}

// ObserveBreakpointCleared implements interfaces.Observer.
func (m *Metrics) ObserveBreakpointCleared(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpointsCleared[kind]++
}

// ObserveStopReply implements interfaces.Observer.
func (m *Metrics) ObserveStopReply(signal int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopReplies[signal]++
}

// ObserveError implements interfaces.Observer.
func (m *Metrics) ObserveError(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[code]++
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to read without
// racing further updates.
type MetricsSnapshot struct {
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64

	BreakpointsSet     map[string]uint64
	BreakpointsCleared map[string]uint64
	StopReplies        map[int]uint64
	Errors             map[string]uint64

	UptimeNs uint64
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		PacketsSent:        m.PacketsSent.Load(),
		PacketsReceived:    m.PacketsReceived.Load(),
		BytesSent:          m.BytesSent.Load(),
		BytesReceived:      m.BytesReceived.Load(),
		BreakpointsSet:     make(map[string]uint64, len(m.breakpointsSet)),
		BreakpointsCleared: make(map[string]uint64, len(m.breakpointsCleared)),
		StopReplies:        make(map[int]uint64, len(m.stopReplies)),
		Errors:             make(map[string]uint64, len(m.errors)),
		UptimeNs:           uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	for k, v := range m.breakpointsSet {
		snap.BreakpointsSet[k] = v
	}
	for k, v := range m.breakpointsCleared {
		snap.BreakpointsCleared[k] = v
	}
	for k, v := range m.stopReplies {
		snap.StopReplies[k] = v
	}
	for k, v := range m.errors {
		snap.Errors[k] = v
	}
	return snap
}

// Reset zeroes every counter, useful for testing.
func (m *Metrics) Reset() {
	m.PacketsSent.Store(0)
	m.PacketsReceived.Store(0)
	m.BytesSent.Store(0)
	m.BytesReceived.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpointsSet = make(map[string]uint64)
	m.breakpointsCleared = make(map[string]uint64)
	m.stopReplies = make(map[int]uint64)
	m.errors = make(map[string]uint64)
	m.StartTime.Store(time.Now().UnixNano())
}

// NoOpObserver discards every observation; the default when no Metrics is
// supplied to a Session.
type NoOpObserver struct{}

func (NoOpObserver) ObservePacketSent(int)         {}
func (NoOpObserver) ObservePacketReceived(int)      {}
func (NoOpObserver) ObserveBreakpointSet(string)    {}
func (NoOpObserver) ObserveBreakpointCleared(string) {}
func (NoOpObserver) ObserveStopReply(int)           {}
func (NoOpObserver) ObserveError(string)            {}
