package ipc

import (
	"github.com/xbee868/monitor/internal/logging"
)

// Handler answers one method call. params holds the request's top-level
// fields other than "method", all strings per the wire format.
type Handler func(params map[string]string) (any, error)

// publicError is implemented by errors that carry a message safe to
// return to a client (monitor.Error does). Errors that don't implement
// it are reported as a generic internal error, so internal detail never
// leaks onto the wire.
type publicError interface {
	PublicMessage() string
}

// Dispatcher maps method names to Handlers, the server-side half of the
// name/params request protocol.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *logging.Logger
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler), logger: logger}
}

// Register adds a handler for method. It panics on a duplicate
// registration, a programmer error that should never reach production.
func (d *Dispatcher) Register(method string, h Handler) {
	if _, exists := d.handlers[method]; exists {
		panic("ipc: handler for method " + method + " is already registered")
	}
	d.handlers[method] = h
}

// Handle looks up req.Method and runs it, always returning a Reply ready
// to encode: {"result": ...} on success, {"error": "..."} on failure.
func (d *Dispatcher) Handle(req *Request) Reply {
	handler, ok := d.handlers[req.Method]
	if !ok {
		d.logger.Warnf("request for unknown method %q", req.Method)
		return Reply{Error: "Invalid method: " + req.Method + "."}
	}

	result, err := handler(req.Params)
	if err != nil {
		if pe, ok := err.(publicError); ok {
			d.logger.Warnf("request %q failed: %v", req.Method, err)
			return Reply{Error: pe.PublicMessage()}
		}
		d.logger.Errorf("request %q failed: %v", req.Method, err)
		return Reply{Error: "Internal error"}
	}

	return Reply{Result: result}
}
