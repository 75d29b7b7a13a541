// Package ipc implements the monitor's client protocol: a UNIX domain
// socket accepting length-prefixed JSON requests, one per connection,
// dispatched to a small table of named methods.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/xbee868/monitor/internal/constants"
)

// Request is one decoded client request: a method name plus its
// string-valued parameters, mirroring the wire format exactly (no
// nested objects, no non-string values).
type Request struct {
	Method string
	Params map[string]string
}

// Reply is the envelope sent back to the client: exactly one of Result
// or Error is set. Result has no omitempty: a successful call can
// legitimately return an empty map or a zero value, and that must still
// round-trip as a present "result" key rather than vanish from the
// wire indistinguishably from a missing one.
type Reply struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// EncodeLength renders the 8-byte big-endian length prefix for a message
// of the given size.
func EncodeLength(size int) []byte {
	buf := make([]byte, constants.LengthPrefixSize)
	binary.BigEndian.PutUint64(buf, uint64(size))
	return buf
}

// DecodeLength reads the message length out of an 8-byte big-endian
// prefix.
func DecodeLength(prefix []byte) uint64 {
	return binary.BigEndian.Uint64(prefix)
}

// ParseRequest decodes a JSON request body into a Request. It rejects
// anything that isn't a flat object of string values with a "method"
// key, the same restriction the original protocol enforces.
func ParseRequest(body []byte) (*Request, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON request: %w", err)
	}

	methodVal, ok := raw["method"]
	if !ok {
		return nil, fmt.Errorf("request has no method")
	}
	method, ok := methodVal.(string)
	if !ok {
		return nil, fmt.Errorf("method must be a string")
	}
	delete(raw, "method")

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q must be a string", k)
		}
		params[k] = s
	}

	return &Request{Method: method, Params: params}, nil
}

// EncodeReply renders reply as the framed (length-prefixed) response
// bytes ready to write to the connection.
func EncodeReply(reply Reply) ([]byte, error) {
	body, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	return append(EncodeLength(len(body)), body...), nil
}
