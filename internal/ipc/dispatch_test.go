package ipc

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xbee868/monitor/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Level: logging.LevelError, Output: io.Discard})
}

type fakePublicError struct{ msg string }

func (e *fakePublicError) Error() string         { return "internal: " + e.msg }
func (e *fakePublicError) PublicMessage() string { return e.msg }

func TestDispatcherHandleSuccess(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register("uptime", func(params map[string]string) (any, error) {
		return map[string]any{"uptime": 42}, nil
	})

	reply := d.Handle(&Request{Method: "uptime"})
	assert.Empty(t, reply.Error)
	assert.NotNil(t, reply.Result)
}

func TestDispatcherUnknownMethod(t *testing.T) {
	d := NewDispatcher(testLogger())
	reply := d.Handle(&Request{Method: "bogus"})
	assert.Contains(t, reply.Error, "Invalid method")
}

func TestDispatcherPublicErrorSurfacesMessage(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register("metrics", func(params map[string]string) (any, error) {
		return nil, &fakePublicError{msg: "no such host: attic"}
	})

	reply := d.Handle(&Request{Method: "metrics", Params: map[string]string{"host": "attic"}})
	assert.Equal(t, "no such host: attic", reply.Error)
}

func TestDispatcherInternalErrorHidesDetail(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register("metrics", func(params map[string]string) (any, error) {
		return nil, errors.New("permission denied on /etc/shadow")
	})

	reply := d.Handle(&Request{Method: "metrics"})
	assert.Equal(t, "Internal error", reply.Error)
}

func TestDispatcherRegisterDuplicatePanics(t *testing.T) {
	d := NewDispatcher(testLogger())
	d.Register("uptime", func(map[string]string) (any, error) { return nil, nil })

	assert.Panics(t, func() {
		d.Register("uptime", func(map[string]string) (any, error) { return nil, nil })
	})
}
