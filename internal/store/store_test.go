package store

import (
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New([]string{"attic"})
	now := time.Now()

	s.Put("attic", "temperature", 21.5, now)

	metrics, ok := s.Get("attic")
	assert.True(t, ok)
	assert.Equal(t, Sample{Timestamp: now, Value: 21.5}, metrics["temperature"])
}

func TestGetUnknownHost(t *testing.T) {
	s := New([]string{"attic"})
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestGetConfiguredHostWithNoSamplesYet(t *testing.T) {
	s := New([]string{"attic"})

	metrics, ok := s.Get("attic")
	assert.True(t, ok)
	assert.NotNil(t, metrics)
	assert.Empty(t, metrics)
}

func TestPutOverwritesPreviousSample(t *testing.T) {
	s := New([]string{"attic"})
	t0 := time.Now()
	t1 := t0.Add(time.Minute)

	s.Put("attic", "temperature", 21.5, t0)
	s.Put("attic", "temperature", 22.0, t1)

	metrics, _ := s.Get("attic")
	assert.Equal(t, 22.0, metrics["temperature"].Value)
	assert.Equal(t, t1, metrics["temperature"].Timestamp)
}

func TestGetReturnsACopy(t *testing.T) {
	s := New([]string{"attic"})
	s.Put("attic", "temperature", 21.5, time.Now())

	metrics, _ := s.Get("attic")
	metrics["temperature"] = Sample{Value: 99}

	fresh, _ := s.Get("attic")
	assert.NotEqual(t, 99.0, fresh["temperature"].Value)
}

func TestNewAddressTableLookup(t *testing.T) {
	table, err := NewAddressTable(map[string]string{
		"attic": "0013A20012345678",
	})
	assert.NoError(t, err)

	host, ok := table.Lookup(0x0013A20012345678)
	assert.True(t, ok)
	assert.Equal(t, "attic", host)

	_, ok = table.Lookup(0xDEADBEEF)
	assert.False(t, ok)
}

func TestNewAddressTableRejectsMalformedAddress(t *testing.T) {
	_, err := NewAddressTable(map[string]string{"attic": "not-hex"})
	assert.Error(t, err)
}

func TestGetReturnsAllStoredMetrics(t *testing.T) {
	s := New([]string{"attic"})
	at := time.Unix(1700000000, 0)
	s.Put("attic", "temperature", 21.5, at)
	s.Put("attic", "humidity", 40, at)

	want := map[string]Sample{
		"temperature": {Timestamp: at, Value: 21.5},
		"humidity":    {Timestamp: at, Value: 40},
	}
	got, ok := s.Get("attic")
	assert.True(t, ok)
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
}
