package monitor

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/reactor"
)

// signalBridge is the classic self-pipe trick: Go's signal.Notify
// delivers SIGINT/SIGTERM/SIGQUIT on its own goroutine, asynchronously
// to the reactor loop; writing a byte to a pipe the reactor already
// polls brings that notification onto the single-threaded loop instead
// of requiring the reactor itself to juggle goroutines.
type signalBridge struct {
	*reactor.BaseObject
	sigCh  chan os.Signal
	logger *logging.Logger
	onStop func()
}

func newSignalBridge(r *reactor.Reactor, logger *logging.Logger, onStop func()) (*signalBridge, error) {
	fds, err := unix.Pipe2(unix.O_NONBLOCK | unix.O_CLOEXEC)
	if err != nil {
		return nil, err
	}

	writer := os.NewFile(uintptr(fds[1]), "signal-bridge-writer")
	b := &signalBridge{
		BaseObject: reactor.NewBaseObject(r, fds[0]),
		sigCh:      make(chan os.Signal, 1),
		logger:     logger,
		onStop:     onStop,
	}

	signal.Notify(b.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-b.sigCh
		writer.Write([]byte{0})
	}()

	b.AddCloseHandler(func() {
		signal.Stop(b.sigCh)
		writer.Close()
	})

	return b, nil
}

func (b *signalBridge) Interest() reactor.Interest { return reactor.Readable }

func (b *signalBridge) OnWritable() {}

func (b *signalBridge) OnError() { b.Close() }

// Stop closes the bridge's pipe and stops forwarding signals. Reached
// when something other than the bridge's own OnReadable initiates
// shutdown.
func (b *signalBridge) Stop() { b.Close() }

func (b *signalBridge) OnReadable() {
	b.logger.Info("received shutdown signal")
	b.Close()
	b.onStop()
}
