package monitor

import (
	"time"

	"github.com/xbee868/monitor/internal/store"
)

// Sample is re-exported so callers constructing a MetricStore in tests
// don't need to import internal/store directly.
type Sample = store.Sample

// MetricStore is the host/address-aware facade internal/sensor and
// internal/ipc share: it resolves an XBee source MAC to a configured
// host name and keeps the latest sample per host/metric pair.
type MetricStore struct {
	samples   *store.Store
	addresses *store.AddressTable
}

// NewMetricStore builds a MetricStore from a host name -> hex MAC address
// mapping, the shape internal/config produces.
func NewMetricStore(hosts map[string]string) (*MetricStore, error) {
	addresses, err := store.NewAddressTable(hosts)
	if err != nil {
		return nil, WrapError("NewMetricStore", CodeInvalidArguments, err)
	}

	names := make([]string, 0, len(hosts))
	for host := range hosts {
		names = append(names, host)
	}
	return &MetricStore{samples: store.New(names), addresses: addresses}, nil
}

// PutByAddress records a sample from the sensor identified by its 64-bit
// XBee source address. It reports ok=false, storing nothing, when the
// address isn't mapped to a configured host.
func (m *MetricStore) PutByAddress(addr uint64, metric string, value float64, at time.Time) (host string, ok bool) {
	host, ok = m.addresses.Lookup(addr)
	if !ok {
		return "", false
	}
	m.samples.Put(host, metric, value, at)
	return host, true
}

// Metrics returns every metric known for host, or an ErrUnknownHost-coded
// error if host isn't in the configured host set. A configured host that
// simply hasn't reported a sample yet returns an empty map, not an error.
func (m *MetricStore) Metrics(host string) (map[string]Sample, error) {
	metrics, ok := m.samples.Get(host)
	if !ok {
		return nil, NewError("metrics", CodeUnknownHost, "no such host: "+host)
	}
	return metrics, nil
}

// Hosts lists every host that has reported at least one sample.
func (m *MetricStore) Hosts() []string {
	return m.samples.Hosts()
}
