// Package sensor bridges a single XBee 868 serial device to the reactor:
// it reads raw bytes as they arrive, feeds them through an
// internal/frame.Decoder, and records decoded temperature samples in a
// store.
package sensor

import (
	"time"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/frame"
	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/reactor"
)

// Store is the subset of monitor.MetricStore the sensor needs. Kept as
// an interface so tests can supply a fake without pulling in the root
// package (which would import this one for wiring, a cycle).
type Store interface {
	PutByAddress(addr uint64, metric string, value float64, at time.Time) (host string, ok bool)
}

// Observer receives the events Sensor wants counted; callers satisfy it
// with monitor.Observer or a no-op.
type Observer interface {
	ObserveFrameDecoded()
	ObserveFrameRejected()
	ObserveBytesSkipped(n uint64)
	ObserveSampleStored()
	ObserveUnknownSource()
}

// Sensor is a reactor.IOObject wrapping one open serial device.
type Sensor struct {
	*reactor.BaseObject
	device      string
	decoder     *frame.Decoder
	store       Store
	now         func() time.Time
	logger      *logging.Logger
	obs         Observer
	lastSkipped int
}

// New wraps an already-opened, non-blocking serial fd. Callers typically
// get fd from unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0). If
// registry is non-nil, its entry for device is released when the Sensor
// closes, so a later Scan can reconnect.
func New(r *reactor.Reactor, fd int, device string, store Store, obs Observer, logger *logging.Logger, registry *Registry) *Sensor {
	s := &Sensor{
		BaseObject: reactor.NewBaseObject(r, fd),
		device:     device,
		decoder:    frame.NewDecoder(),
		store:      store,
		now:        time.Now,
		logger:     logger,
		obs:        obs,
	}
	if registry != nil {
		s.AddCloseHandler(func() { registry.Forget(device) })
	}
	return s
}

func (s *Sensor) Interest() reactor.Interest { return reactor.Readable }

func (s *Sensor) OnWritable() {}

func (s *Sensor) OnError() {
	s.logger.Warnf("sensor %s: I/O error, closing", s.device)
	s.Close()
}

// Stop closes the underlying serial device.
func (s *Sensor) Stop() {
	s.Close()
}

// OnReadable drains the fd, feeds every new byte through the decoder and
// stores any temperature sample found in fully decoded I/O data frames.
func (s *Sensor) OnReadable() {
	ready, err := s.TryRead(4096)
	if err != nil {
		s.logger.Warnf("sensor %s: read error: %v", s.device, err)
		s.Close()
		return
	}
	if !ready {
		return
	}

	samples, errs := s.decoder.Feed(s.ReadBuffer())
	s.ClearReadBuffer(len(s.ReadBuffer()))

	if skipped := s.decoder.SkippedBytes(); skipped > s.lastSkipped {
		s.obs.ObserveBytesSkipped(uint64(skipped - s.lastSkipped))
		s.lastSkipped = skipped
	}

	for _, decodeErr := range errs {
		s.logger.Warnf("sensor %s: %v", s.device, decodeErr)
		s.obs.ObserveFrameRejected()
	}

	for _, sample := range samples {
		s.obs.ObserveFrameDecoded()
		s.handleSample(sample)
	}
}

func (s *Sensor) handleSample(sample *frame.IODataSample) {
	raw, present := sample.AnalogSamples[constants.TemperatureAnalogChannel]
	if !present {
		s.logger.Debugf("sensor %s: no temperature sensor reading from %016X", s.device, sample.SourceAddress)
		return
	}

	value, status := TemperatureDegrees(raw)
	switch status {
	case NoSensor:
		s.logger.Warnf("sensor %s: %016X doesn't have a temperature sensor", s.device, sample.SourceAddress)
		return
	case InvalidValue:
		s.logger.Errorf("sensor %s: got an invalid temperature value for %016X: %d", s.device, sample.SourceAddress, raw)
		s.obs.ObserveFrameRejected()
		return
	}

	host, ok := s.store.PutByAddress(sample.SourceAddress, "temperature", value, s.now())
	if !ok {
		s.logger.Warnf("sensor %s: got metrics for an unknown MAC address: %016X", s.device, sample.SourceAddress)
		s.obs.ObserveUnknownSource()
		return
	}

	s.logger.Infof("sensor %s: temperature for %s: %.0f", s.device, host, value)
	s.obs.ObserveSampleStored()
}

// TemperatureStatus classifies a raw ADC reading before it's converted.
type TemperatureStatus int

const (
	// OK means value holds a usable reading.
	OK TemperatureStatus = iota
	// NoSensor means the channel saturated at 1023, meaning nothing is
	// wired to that analog input.
	NoSensor
	// InvalidValue means raw exceeds the ADC's 10-bit range entirely,
	// which shouldn't happen on real hardware.
	InvalidValue
)

// TemperatureDegrees converts a raw 10-bit ADC reading from the analog
// temperature channel into degrees using the sensor's documented
// transfer function: voltage = raw/1023*2.5V, degrees = (voltage-0.5)*100.
func TemperatureDegrees(raw uint16) (degrees float64, status TemperatureStatus) {
	switch {
	case raw == constants.NoSensorValue:
		return 0, NoSensor
	case raw > constants.NoSensorValue:
		return 0, InvalidValue
	default:
		voltage := float64(raw) / constants.NoSensorValue * constants.ReferenceVoltage
		return float64(int((voltage - 0.5) * 100)), OK
	}
}
