package sensor

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/reactor"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Level: logging.LevelError, Output: io.Discard})
}

type fakeStore struct {
	host    string
	ok      bool
	metric  string
	value   float64
	atCalls int
}

func (f *fakeStore) PutByAddress(addr uint64, metric string, value float64, at time.Time) (string, bool) {
	f.metric = metric
	f.value = value
	f.atCalls++
	return f.host, f.ok
}

type countingObserver struct {
	decoded, rejected, stored, unknown int
}

func (o *countingObserver) ObserveFrameDecoded()     { o.decoded++ }
func (o *countingObserver) ObserveFrameRejected()    { o.rejected++ }
func (o *countingObserver) ObserveBytesSkipped(uint64) {}
func (o *countingObserver) ObserveSampleStored()     { o.stored++ }
func (o *countingObserver) ObserveUnknownSource()    { o.unknown++ }

func checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return 0xFF - sum
}

func buildIOSampleFrame(addr uint64, analogValue uint16) []byte {
	p := []byte{0x92}
	for shift := 56; shift >= 0; shift -= 8 {
		p = append(p, byte(addr>>shift))
	}
	p = append(p, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00, 0x02, byte(analogValue>>8), byte(analogValue))
	out := []byte{0x7E, byte(len(p) >> 8), byte(len(p))}
	out = append(out, p...)
	return append(out, checksum(p))
}

func TestSensorStoresKnownTemperature(t *testing.T) {
	r, err := reactor.NewReactor(testLogger())
	require.NoError(t, err)
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fds[1])

	store := &fakeStore{host: "attic", ok: true}
	obs := &countingObserver{}
	s := New(r, fds[0], "test-device", store, obs, testLogger(), nil)
	require.NoError(t, r.Register(s))

	_, err = unix.Write(fds[1], buildIOSampleFrame(0x0013A20012345678, 300))
	require.NoError(t, err)

	s.OnReadable()

	assert.Equal(t, 1, obs.decoded)
	assert.Equal(t, 1, obs.stored)
	assert.Equal(t, 0, obs.unknown)
	assert.Equal(t, "temperature", store.metric)
}

func TestSensorUnknownAddressCountsObserver(t *testing.T) {
	r, err := reactor.NewReactor(testLogger())
	require.NoError(t, err)
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fds[1])

	store := &fakeStore{ok: false}
	obs := &countingObserver{}
	s := New(r, fds[0], "test-device", store, obs, testLogger(), nil)
	require.NoError(t, r.Register(s))

	unix.Write(fds[1], buildIOSampleFrame(0xDEADBEEFDEADBEEF, 300))
	s.OnReadable()

	assert.Equal(t, 1, obs.unknown)
	assert.Equal(t, 0, obs.stored)
}

func TestTemperatureDegreesNoSensor(t *testing.T) {
	_, status := TemperatureDegrees(1023)
	assert.Equal(t, NoSensor, status)
}

func TestTemperatureDegreesInvalid(t *testing.T) {
	_, status := TemperatureDegrees(2000)
	assert.Equal(t, InvalidValue, status)
}

func TestTemperatureDegreesComputesValue(t *testing.T) {
	degrees, status := TemperatureDegrees(500)
	assert.Equal(t, OK, status)
	assert.InDelta(t, 72.0, degrees, 1.0)
}

func TestRegistryForgetAllowsRescan(t *testing.T) {
	reg := NewRegistry()
	reg.markOpen("/dev/serial/by-id/xbib-u-ss-0")
	assert.True(t, reg.isOpen("/dev/serial/by-id/xbib-u-ss-0"))

	reg.Forget("/dev/serial/by-id/xbib-u-ss-0")
	assert.False(t, reg.isOpen("/dev/serial/by-id/xbib-u-ss-0"))
}
