package gdbstub

import "testing"

func TestMetricsSnapshotInitialState(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()

	if snap.PacketsSent != 0 || snap.PacketsReceived != 0 {
		t.Errorf("expected zero packet counts, got sent=%d received=%d", snap.PacketsSent, snap.PacketsReceived)
	}
	if len(snap.BreakpointsSet) != 0 {
		t.Errorf("expected empty breakpoint map, got %v", snap.BreakpointsSet)
	}
}

func TestMetricsRecordsPacketTraffic(t *testing.T) {
	m := NewMetrics()
	m.ObservePacketSent(10)
	m.ObservePacketReceived(20)
	m.ObservePacketSent(5)

	snap := m.Snapshot()
	if snap.PacketsSent != 2 {
		t.Errorf("expected 2 packets sent, got %d", snap.PacketsSent)
	}
	if snap.BytesSent != 15 {
		t.Errorf("expected 15 bytes sent, got %d", snap.BytesSent)
	}
	if snap.PacketsReceived != 1 || snap.BytesReceived != 20 {
		t.Errorf("expected 1 packet / 20 bytes received, got %d/%d", snap.PacketsReceived, snap.BytesReceived)
	}
}

func TestMetricsRecordsBreakpointsByKind(t *testing.T) {
	m := NewMetrics()
	m.ObserveBreakpointSet("software")
	m.ObserveBreakpointSet("software")
	m.ObserveBreakpointSet("hardware")
	m.ObserveBreakpointCleared("software")

	snap := m.Snapshot()
	if snap.BreakpointsSet["software"] != 2 {
		t.Errorf("expected 2 software breakpoints set, got %d", snap.BreakpointsSet["software"])
	}
	if snap.BreakpointsSet["hardware"] != 1 {
		t.Errorf("expected 1 hardware breakpoint set, got %d", snap.BreakpointsSet["hardware"])
	}
	if snap.BreakpointsCleared["software"] != 1 {
		t.Errorf("expected 1 software breakpoint cleared, got %d", snap.BreakpointsCleared["software"])
	}
}

func TestMetricsRecordsStopRepliesAndErrors(t *testing.T) {
	m := NewMetrics()
	m.ObserveStopReply(5)
	m.ObserveStopReply(5)
	m.ObserveError("protocol")

	snap := m.Snapshot()
	if snap.StopReplies[5] != 2 {
		t.Errorf("expected 2 signal-5 stop replies, got %d", snap.StopReplies[5])
	}
	if snap.Errors["protocol"] != 1 {
		t.Errorf("expected 1 protocol error, got %d", snap.Errors["protocol"])
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.ObservePacketSent(100)
	m.ObserveBreakpointSet("software")
	m.Reset()

	snap := m.Snapshot()
	if snap.PacketsSent != 0 || len(snap.BreakpointsSet) != 0 {
		t.Errorf("expected Reset to clear all counters, got %+v", snap)
	}
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	var o NoOpObserver
	o.ObservePacketSent(1)
	o.ObservePacketReceived(1)
	o.ObserveBreakpointSet("software")
	o.ObserveBreakpointCleared("software")
	o.ObserveStopReply(5)
	o.ObserveError("protocol")
}
