package monitor

import "github.com/xbee868/monitor/internal/constants"

// Re-export the fixed wire-protocol and filesystem constants for callers
// outside the module (cmd/, tests) that shouldn't need to reach into
// internal/constants directly.
const (
	FrameDelimiter           = constants.FrameDelimiter
	MaxFrameSize             = constants.MaxFrameSize
	FrameTypeIODataSample    = constants.FrameTypeIODataSample
	TemperatureAnalogChannel = constants.TemperatureAnalogChannel
	NoSensorValue            = constants.NoSensorValue

	DefaultSocketPath = constants.DefaultSocketPath
	MaxRequestSize    = constants.MaxRequestSize

	SerialDeviceDir        = constants.SerialDeviceDir
	SerialDeviceNameSubstr = constants.SerialDeviceNameSubstr

	DefaultConfigPath = constants.DefaultConfigPath
)

var (
	IPCTimeout           = constants.IPCTimeout
	SensorRescanInterval = constants.SensorRescanInterval
)
