package constants

import "time"

// XBee API frame constants.
const (
	// FrameDelimiter marks the start of an XBee API frame.
	FrameDelimiter = 0x7E

	// MaxFrameSize bounds the frame body length field. It exists purely to
	// detect a desynced stream quickly instead of buffering arbitrary
	// amounts of garbage while waiting for a checksum mismatch.
	MaxFrameSize = 100

	// FrameHeaderSize is the delimiter byte plus the big-endian length field.
	FrameHeaderSize = 3

	// FrameTypeIODataSample is the API identifier for an "I/O Data Sample Rx" frame.
	FrameTypeIODataSample = 0x92

	// TemperatureAnalogChannel is the analog channel index (AD1) the sensor
	// board wires its temperature probe to.
	TemperatureAnalogChannel = 1

	// NoSensorValue is the ADC reading reported when no probe is attached.
	NoSensorValue = 1023

	// ReferenceVoltage is the ADC's full-scale voltage.
	ReferenceVoltage = 2.5
)

// IPC protocol constants.
const (
	// DefaultSocketPath is the UNIX socket the supervisor listens on.
	DefaultSocketPath = "/var/run/xbee-868/monitor.socket"

	// ListenBacklog is the backlog passed to listen(2) for the IPC socket.
	ListenBacklog = 128

	// MaxRequestSize bounds a single IPC request body.
	MaxRequestSize = 1 << 20

	// IPCTimeout is how long a connection may sit without completing a
	// request before it is dropped.
	IPCTimeout = 10 * time.Second

	// LengthPrefixSize is the width of the big-endian size field preceding
	// every IPC message.
	LengthPrefixSize = 8
)

// Serial device discovery constants.
const (
	// SerialDeviceDir is scanned for candidate sensor devices.
	SerialDeviceDir = "/dev/serial/by-id"

	// SerialDeviceNameSubstr identifies an XBee 868 USB adapter among the
	// devices listed under SerialDeviceDir. Matched case-insensitively.
	SerialDeviceNameSubstr = "xbib-u-ss"

	// SensorRescanInterval is how often the supervisor rescans for newly
	// attached sensors.
	SensorRescanInterval = 10 * time.Second
)

// DefaultConfigPath is where the supervisor looks for its configuration
// file absent an override.
const DefaultConfigPath = "/etc/xbee-868-monitor.conf"

// MetricStaleAfter bounds how old a stored metric sample may be before
// the check plugin reports it as outdated (critical) rather than current.
// The plugin also uses it as the daemon uptime below which a missing
// metric is reported as not collected yet rather than as no data.
const MetricStaleAfter = 10 * time.Second

// ReactorPollSlack bounds how early the reactor will run a deferred call
// relative to its due time: a call becomes eligible once "now" is within
// this margin of its deadline, so the poll timeout doesn't need sub-
// millisecond precision.
const ReactorPollSlack = time.Millisecond
