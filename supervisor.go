package monitor

import (
	"golang.org/x/sys/unix"

	"github.com/xbee868/monitor/internal/config"
	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/ipc"
	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/reactor"
	"github.com/xbee868/monitor/internal/sensor"
)

// Supervisor owns the reactor and wires together the pieces it drives:
// sensor discovery, the IPC server, the signal bridge and the metric
// store they all share.
type Supervisor struct {
	reactor  *reactor.Reactor
	store    *MetricStore
	metrics  *Metrics
	obs      Observer
	logger   *logging.Logger
	registry *sensor.Registry

	socketPath string
}

// NewSupervisor builds a Supervisor from a loaded configuration. It does
// not start anything yet; call Run for that.
func NewSupervisor(cfg *config.Config, logger *logging.Logger) (*Supervisor, error) {
	store, err := NewMetricStore(cfg.Hosts)
	if err != nil {
		return nil, err
	}

	r, err := reactor.NewReactor(logger)
	if err != nil {
		return nil, WrapError("NewSupervisor", CodeInternal, err)
	}

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = constants.DefaultSocketPath
	}

	metrics := NewMetrics()

	return &Supervisor{
		reactor:    r,
		store:      store,
		metrics:    metrics,
		obs:        NewMetricsObserver(metrics),
		logger:     logger,
		registry:   sensor.NewRegistry(),
		socketPath: socketPath,
	}, nil
}

// Run starts the reactor loop: it binds the IPC server, performs an
// initial sensor scan, arms the signal bridge and periodic rescan, then
// blocks until a termination signal arrives.
func (s *Supervisor) Run() error {
	defer s.reactor.Close()

	bridge, err := newSignalBridge(s.reactor, s.logger, s.reactor.Stop)
	if err != nil {
		return WrapError("Run", CodeInternal, err)
	}
	if err := s.reactor.Register(bridge); err != nil {
		return WrapError("Run", CodeInternal, err)
	}

	if err := s.startIPCServer(); err != nil {
		return err
	}

	s.scanSensors()
	s.rearmSensorScan()

	s.logger.Info("starting the daemon")
	if err := s.reactor.Run(); err != nil {
		return WrapError("Run", CodeInternal, err)
	}

	s.metrics.Stop()
	s.logger.Info("daemon stopped")
	return nil
}

func (s *Supervisor) startIPCServer() error {
	fd, err := ipc.Listen(s.socketPath)
	if err != nil {
		return WrapError("startIPCServer", CodeInternal, err)
	}
	s.logger.Infof("listening for client connections at %q", s.socketPath)

	dispatcher := s.buildDispatcher()
	server := ipc.NewServer(s.reactor, fd, s.socketPath, dispatcher, s.logger, s.obs)
	if err := s.reactor.Register(server); err != nil {
		return WrapError("startIPCServer", CodeInternal, err)
	}
	return nil
}

func (s *Supervisor) buildDispatcher() *ipc.Dispatcher {
	d := ipc.NewDispatcher(s.logger)

	d.Register("uptime", func(params map[string]string) (any, error) {
		snap := s.metrics.Snapshot()
		return map[string]any{"uptime": int64(snap.UptimeNs / 1e9)}, nil
	})

	d.Register("metrics", func(params map[string]string) (any, error) {
		host, ok := params["host"]
		if !ok {
			return nil, NewError("metrics", CodeInvalidArguments, "host parameter is required")
		}
		samples, err := s.store.Metrics(host)
		if err != nil {
			return nil, err
		}

		result := make(map[string]any, len(samples))
		for name, sample := range samples {
			result[name] = map[string]any{
				"time":  sample.Timestamp.Unix(),
				"value": sample.Value,
			}
		}
		return result, nil
	})

	return d
}

func (s *Supervisor) scanSensors() {
	opener := func(path string) (int, error) {
		return unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	}

	err := sensor.Scan(constants.SerialDeviceDir, s.registry, opener, s.logger, func(path string, fd int) {
		sn := sensor.New(s.reactor, fd, path, s.store, s.obs, s.logger, s.registry)
		if err := s.reactor.Register(sn); err != nil {
			s.logger.Errorf("failed to register sensor %s: %v", path, err)
			sn.Close()
		}
	})
	if err != nil {
		s.logger.Errorf("unable to list connected serial devices: %v", err)
	}
}

func (s *Supervisor) rearmSensorScan() {
	s.reactor.ScheduleAfter(constants.SensorRescanInterval, func() {
		s.scanSensors()
		s.rearmSensorScan()
	})
}

// Stop requests the supervisor's reactor loop to exit on its next
// iteration.
func (s *Supervisor) Stop() {
	s.reactor.Stop()
}
