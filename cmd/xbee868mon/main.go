// Command xbee868mon is the XBee 868 monitor daemon: it decodes
// temperature readings off a USB serial link and serves them to
// xbee868mon-check over a UNIX domain socket.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xbee868/monitor"
	"github.com/xbee868/monitor/internal/config"
	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", constants.DefaultConfigPath, "Path to the configuration file")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	logger := logging.NewLogger(&logging.Config{Level: logging.ParseLevel(levelName(*debug))})
	logging.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	supervisor, err := monitor.NewSupervisor(cfg, logger)
	if err != nil {
		logger.Errorf("failed to initialize the daemon: %v", err)
		os.Exit(1)
	}

	if err := supervisor.Run(); err != nil {
		logger.Errorf("daemon exited with an error: %v", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "xbee868mon: stopped")
}

func levelName(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}
