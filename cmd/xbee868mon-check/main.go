// Command xbee868mon-check is a Nagios-style plugin that queries a
// running xbee868mon daemon over its UNIX domain socket and reports a
// host's metric against warning and critical thresholds.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/ipcclient"
	"github.com/xbee868/monitor/internal/nagios"
)

func main() {
	var (
		socketPath = flag.String("socket", constants.DefaultSocketPath, "Path to the monitor's IPC socket")
		warning    = flag.String("w", "", "Warning threshold range")
		critical   = flag.String("c", "", "Critical threshold range")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(int(nagios.Unknown))
	}
	host, metric := flag.Arg(0), flag.Arg(1)

	if metric != "temperature" {
		respond(nagios.Unknown, fmt.Sprintf("unknown metric %q", metric))
	}
	if *warning == "" || *critical == "" {
		respond(nagios.Unknown, "-w and -c are both required")
	}

	warn, err := nagios.ParseRange(*warning)
	if err != nil {
		respond(nagios.Unknown, fmt.Sprintf("warning threshold: %v", err))
	}
	crit, err := nagios.ParseRange(*critical)
	if err != nil {
		respond(nagios.Unknown, fmt.Sprintf("critical threshold: %v", err))
	}

	client := ipcclient.New(*socketPath)
	value, status, message := checkTemperature(client, host)
	if message != "" {
		respond(status, message)
	}

	respond(nagios.Evaluate(value, warn, crit), fmt.Sprintf("temperature is %.0f", value))
}

// checkTemperature fetches host's temperature metric and classifies its
// freshness. A non-empty message means the caller should respond with it
// directly instead of evaluating thresholds.
func checkTemperature(client *ipcclient.Client, host string) (value float64, status nagios.Status, message string) {
	metrics, err := client.Metrics(host)
	if err != nil {
		return 0, nagios.Unknown, err.Error()
	}

	metric, ok := metrics["temperature"]
	if !ok {
		return staleOrUnknown(client)
	}

	age := time.Since(time.Unix(metric.Time, 0))
	if age >= constants.MetricStaleAfter {
		return 0, nagios.Critical, fmt.Sprintf("outdated (%.0f)", metric.Value)
	}

	return metric.Value, nagios.OK, ""
}

// staleOrUnknown is reached when the daemon has no temperature reading
// for the host at all: distinguish "hasn't collected anything yet" from
// "never going to get one" using the daemon's own uptime.
func staleOrUnknown(client *ipcclient.Client) (float64, nagios.Status, string) {
	uptime, err := client.Uptime()
	if err != nil {
		return 0, nagios.Unknown, err.Error()
	}
	if time.Duration(uptime)*time.Second < constants.MetricStaleAfter {
		return 0, nagios.Unknown, "not collected yet"
	}
	return 0, nagios.Critical, "no data"
}

func respond(status nagios.Status, message string) {
	fmt.Printf("%s: %s\n", status, message)
	os.Exit(int(status))
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-socket PATH] -w VALUE -c VALUE <host> <metric>\n", os.Args[0])
	flag.PrintDefaults()
}
