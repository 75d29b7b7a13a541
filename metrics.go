package monitor

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for the monitor daemon: how much
// of the serial stream was usable, how many connections the IPC server
// served, and how its dispatch table behaved.
type Metrics struct {
	// Frame decoding
	FramesDecoded  atomic.Uint64 // well-formed frames handed to a sensor callback
	FramesRejected atomic.Uint64 // frames dropped to a checksum/size/format error
	BytesSkipped   atomic.Uint64 // bytes discarded while resyncing on the wire

	// Metric store
	SamplesStored  atomic.Uint64 // put() calls that recorded a sample
	UnknownSources atomic.Uint64 // frames from a MAC address with no host mapping

	// IPC server
	ConnectionsAccepted atomic.Uint64
	ConnectionsTimedOut atomic.Uint64
	RequestsOK          atomic.Uint64
	RequestsError       atomic.Uint64

	StartTime atomic.Int64 // process start, UnixNano
	StopTime  atomic.Int64 // zero while running
}

// NewMetrics creates a metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) RecordFrameDecoded()        { m.FramesDecoded.Add(1) }
func (m *Metrics) RecordFrameRejected()       { m.FramesRejected.Add(1) }
func (m *Metrics) RecordBytesSkipped(n uint64) { m.BytesSkipped.Add(n) }
func (m *Metrics) RecordSampleStored()        { m.SamplesStored.Add(1) }
func (m *Metrics) RecordUnknownSource()       { m.UnknownSources.Add(1) }

func (m *Metrics) RecordConnectionAccepted() { m.ConnectionsAccepted.Add(1) }
func (m *Metrics) RecordConnectionTimedOut() { m.ConnectionsTimedOut.Add(1) }

func (m *Metrics) RecordRequest(ok bool) {
	if ok {
		m.RequestsOK.Add(1)
	} else {
		m.RequestsError.Add(1)
	}
}

// Stop marks the process as stopped, freezing UptimeNs in future snapshots.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics.
type MetricsSnapshot struct {
	FramesDecoded  uint64
	FramesRejected uint64
	BytesSkipped   uint64

	SamplesStored  uint64
	UnknownSources uint64

	ConnectionsAccepted uint64
	ConnectionsTimedOut uint64
	RequestsOK          uint64
	RequestsError       uint64

	UptimeNs uint64
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		FramesDecoded:       m.FramesDecoded.Load(),
		FramesRejected:      m.FramesRejected.Load(),
		BytesSkipped:        m.BytesSkipped.Load(),
		SamplesStored:       m.SamplesStored.Load(),
		UnknownSources:      m.UnknownSources.Load(),
		ConnectionsAccepted: m.ConnectionsAccepted.Load(),
		ConnectionsTimedOut: m.ConnectionsTimedOut.Load(),
		RequestsOK:          m.RequestsOK.Load(),
		RequestsError:       m.RequestsError.Load(),
	}

	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	return snap
}

// Reset zeroes all counters and restarts the uptime clock. Useful in tests.
func (m *Metrics) Reset() {
	m.FramesDecoded.Store(0)
	m.FramesRejected.Store(0)
	m.BytesSkipped.Store(0)
	m.SamplesStored.Store(0)
	m.UnknownSources.Store(0)
	m.ConnectionsAccepted.Store(0)
	m.ConnectionsTimedOut.Store(0)
	m.RequestsOK.Store(0)
	m.RequestsError.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, so internal/sensor and
// internal/ipc can report events without importing the root package's
// concrete Metrics type.
type Observer interface {
	ObserveFrameDecoded()
	ObserveFrameRejected()
	ObserveBytesSkipped(n uint64)
	ObserveSampleStored()
	ObserveUnknownSource()
	ObserveConnectionAccepted()
	ObserveConnectionTimedOut()
	ObserveRequest(ok bool)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveFrameDecoded()         {}
func (NoOpObserver) ObserveFrameRejected()        {}
func (NoOpObserver) ObserveBytesSkipped(uint64)   {}
func (NoOpObserver) ObserveSampleStored()         {}
func (NoOpObserver) ObserveUnknownSource()        {}
func (NoOpObserver) ObserveConnectionAccepted()   {}
func (NoOpObserver) ObserveConnectionTimedOut()   {}
func (NoOpObserver) ObserveRequest(bool)          {}

// MetricsObserver implements Observer by recording into a *Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveFrameDecoded()       { o.metrics.RecordFrameDecoded() }
func (o *MetricsObserver) ObserveFrameRejected()      { o.metrics.RecordFrameRejected() }
func (o *MetricsObserver) ObserveBytesSkipped(n uint64) { o.metrics.RecordBytesSkipped(n) }
func (o *MetricsObserver) ObserveSampleStored()       { o.metrics.RecordSampleStored() }
func (o *MetricsObserver) ObserveUnknownSource()      { o.metrics.UnknownSources.Add(1) }
func (o *MetricsObserver) ObserveConnectionAccepted() { o.metrics.RecordConnectionAccepted() }
func (o *MetricsObserver) ObserveConnectionTimedOut() { o.metrics.RecordConnectionTimedOut() }
func (o *MetricsObserver) ObserveRequest(ok bool)     { o.metrics.RecordRequest(ok) }

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
