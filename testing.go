package monitor

import (
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/xbee868/monitor/internal/logging"
)

// NewTestLogger returns a Logger that discards everything, for tests that
// don't want log noise but still need to satisfy a *logging.Logger
// parameter.
func NewTestLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Level: logging.LevelError, Output: io.Discard})
}

// NewPipePair returns a connected pair of non-blocking file descriptors
// backed by pipe(2), standing in for a serial device in tests: writing to
// w makes r readable through the reactor's epoll the same way new bytes
// arriving on a real USB-serial device would.
func NewPipePair() (r, w *os.File, err error) {
	fds, err := unix.Pipe2(unix.O_NONBLOCK | unix.O_CLOEXEC)
	if err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(fds[0]), "test-pipe-r"), os.NewFile(uintptr(fds[1]), "test-pipe-w"), nil
}

// NewSocketPair returns a connected pair of non-blocking UNIX domain
// socket descriptors, standing in for an accepted IPC connection in
// tests that want to drive internal/ipc without a real listening socket.
func NewSocketPair() (a, b *os.File, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(fds[0]), "test-sock-a"), os.NewFile(uintptr(fds[1]), "test-sock-b"), nil
}
