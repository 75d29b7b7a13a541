package sensor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/logging"
)

// Opener abstracts opening a serial device file, so discovery can be
// tested without touching /dev/serial/by-id.
type Opener func(path string) (fd int, err error)

// Registry tracks which device paths already have an open Sensor, so a
// rescan doesn't try to reconnect to one that's already attached.
type Registry struct {
	open map[string]bool
}

// NewRegistry returns an empty device Registry.
func NewRegistry() *Registry {
	return &Registry{open: make(map[string]bool)}
}

func (r *Registry) isOpen(path string) bool { return r.open[path] }

func (r *Registry) markOpen(path string) { r.open[path] = true }

// Forget releases path, normally called from a Sensor's close handler so
// the next Scan reconnects to it.
func (r *Registry) Forget(path string) { delete(r.open, path) }

// Scan lists constants.SerialDeviceDir, opens every not-yet-open device
// whose name matches constants.SerialDeviceNameSubstr, and passes the
// path and fd of each newly opened one to attach. ENOENT (no such
// directory, meaning no serial devices are plugged in at all) is not an
// error.
func Scan(dir string, r *Registry, open Opener, logger *logging.Logger, attach func(path string, fd int)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("there are no connected serial devices")
			return nil
		}
		return err
	}

	found := 0
	for _, entry := range entries {
		if !strings.Contains(strings.ToLower(entry.Name()), constants.SerialDeviceNameSubstr) {
			continue
		}
		found++

		path := filepath.Join(dir, entry.Name())
		if r.isOpen(path) {
			continue
		}

		logger.Infof("connecting to XBee 868 at %s", path)
		fd, err := open(path)
		if err != nil {
			logger.Errorf("failed to connect to %s: %v", path, err)
			continue
		}

		r.markOpen(path)
		attach(path, fd)
	}

	if found == 0 {
		logger.Debug("there is no any connected XBee 868 device")
	}
	return nil
}
