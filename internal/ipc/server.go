package ipc

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/reactor"
)

// Observer receives per-connection lifecycle events for the IPC server,
// satisfied by monitor.Observer or a no-op.
type Observer interface {
	ObserveConnectionAccepted()
	ObserveConnectionTimedOut()
	ObserveRequest(ok bool)
}

type noOpObserver struct{}

func (noOpObserver) ObserveConnectionAccepted() {}
func (noOpObserver) ObserveConnectionTimedOut() {}
func (noOpObserver) ObserveRequest(bool)        {}

// Server is the listening UNIX domain socket IOObject. Each accepted
// connection becomes its own *Connection registered with the same
// reactor.
type Server struct {
	*reactor.BaseObject
	reactor    *reactor.Reactor
	path       string
	dispatcher *Dispatcher
	logger     *logging.Logger
	obs        Observer
	clientID   uint64
}

// Listen binds and listens on path, unlinking any stale socket file left
// behind by a previous, uncleanly terminated run.
func Listen(path string) (int, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, constants.ListenBacklog); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// NewServer wraps an already-listening fd (see Listen), bound to path.
// Closing the server unlinks path so a later Listen doesn't find a stale
// socket file. A nil obs discards lifecycle events.
func NewServer(r *reactor.Reactor, fd int, path string, dispatcher *Dispatcher, logger *logging.Logger, obs Observer) *Server {
	if obs == nil {
		obs = noOpObserver{}
	}
	s := &Server{
		BaseObject: reactor.NewBaseObject(r, fd),
		reactor:    r,
		path:       path,
		dispatcher: dispatcher,
		logger:     logger,
		obs:        obs,
	}
	s.AddCloseHandler(func() {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("failed to remove IPC socket file %q: %v", s.path, err)
		}
	})
	return s
}

func (s *Server) Interest() reactor.Interest { return reactor.Readable }

func (s *Server) OnWritable() {}

func (s *Server) OnError() {
	s.logger.Errorf("IPC server socket error, closing")
	s.Close()
}

// Stop closes the listening socket. The reactor calls this on every
// registered object when it is asked to shut down.
func (s *Server) Stop() {
	s.Close()
}

// OnReadable accepts one pending connection. Level-triggered readiness
// means a backlog of several pending connections drains over several
// loop iterations rather than all at once, keeping any single iteration
// bounded.
func (s *Server) OnReadable() {
	connFD, _, err := unix.Accept4(s.FD(), unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN || err == unix.ECONNABORTED {
			return
		}
		s.logger.Errorf("unable to accept a connection: %v", err)
		return
	}

	s.clientID++
	id := s.clientID
	s.logger.Debugf("accepting client connection #%d", id)
	s.obs.ObserveConnectionAccepted()

	conn := newConnection(s.reactor, connFD, id, s.dispatcher, s.logger, s.obs)
	if err := s.reactor.Register(conn); err != nil {
		s.logger.Errorf("failed to register client connection #%d: %v", id, err)
		conn.Close()
	}
}
