// Package ipcclient implements the Nagios check plugin's half of the
// monitor's IPC protocol: connect, send one length-prefixed JSON
// request, read back the length-prefixed JSON reply.
package ipcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/ipc"
)

// Client talks to the monitor daemon over its UNIX domain socket.
type Client struct {
	path    string
	timeout time.Duration
}

// New returns a Client that will dial path, using constants.IPCTimeout
// as both the connect and request deadline.
func New(path string) *Client {
	return &Client{path: path, timeout: constants.IPCTimeout}
}

// Call issues a single request and decodes its result into v, the same
// shape json.Unmarshal expects.
func (c *Client) Call(method string, params map[string]string, v any) error {
	conn, err := net.DialTimeout("unix", c.path, c.timeout)
	if err != nil {
		if isConnectionRefusedOrMissing(err) {
			return fmt.Errorf("unable to connect to the server, maybe it's not running: %w", err)
		}
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	request := map[string]string{"method": method}
	for k, v := range params {
		request[k] = v
	}
	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	if _, err := conn.Write(append(ipc.EncodeLength(len(body)), body...)); err != nil {
		return fmt.Errorf("request timed out or failed: %w", err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return fmt.Errorf("request timed out or failed: %w", err)
	}

	if len(raw) < constants.LengthPrefixSize {
		return fmt.Errorf("the server rejected the request")
	}
	size := ipc.DecodeLength(raw[:constants.LengthPrefixSize])
	body = raw[constants.LengthPrefixSize:]
	if uint64(len(body)) != size {
		return fmt.Errorf("the server returned a malformed response")
	}

	var reply ipc.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("the server returned an invalid response: %w", err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%s", reply.Error)
	}
	if reply.Result == nil {
		return fmt.Errorf("the server returned an empty result")
	}

	if v == nil {
		return nil
	}
	resultBytes, err := json.Marshal(reply.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(resultBytes, v)
}

// Uptime returns the daemon's uptime in seconds.
func (c *Client) Uptime() (int64, error) {
	var result struct {
		Uptime int64 `json:"uptime"`
	}
	if err := c.Call("uptime", nil, &result); err != nil {
		return 0, err
	}
	return result.Uptime, nil
}

// Metric is one named measurement, as returned by the "metrics" method.
type Metric struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Metrics returns every metric the daemon has recorded for host, keyed
// by metric name.
func (c *Client) Metrics(host string) (map[string]Metric, error) {
	var result map[string]Metric
	if err := c.Call("metrics", map[string]string{"host": host}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func isConnectionRefusedOrMissing(err error) bool {
	msg := err.Error()
	return bytes.Contains([]byte(msg), []byte("connection refused")) ||
		bytes.Contains([]byte(msg), []byte("no such file or directory"))
}
