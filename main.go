// ufwatch tails the systemd journal for UFW BLOCK events, enriches
// them with Docker network context and emits one structured record per
// blocked packet.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"ufwatch/cmd"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "monitor":
		monitorFlags := flag.NewFlagSet("monitor", flag.ExitOnError)
		configFile := monitorFlags.String("config", "", "Configuration file (HCL)")
		monitorFlags.StringVar(configFile, "c", "", "Configuration file (short)")

		verbose := monitorFlags.Bool("verbose", false, "Log every captured journal line")
		monitorFlags.BoolVar(verbose, "v", false, "Verbose (short)")

		format := monitorFlags.String("format", "", "Output format: kv, toml or json")
		snapshotTTL := monitorFlags.String("snapshot-ttl", "", "Docker snapshot refresh bound (e.g. 10s, 0s = per event)")
		metricsAddr := monitorFlags.String("metrics-addr", "", "Expose Prometheus metrics on this address")

		monitorFlags.Parse(os.Args[2:])

		err := cmd.RunMonitor(cmd.MonitorOptions{
			ConfigFile:  *configFile,
			Verbose:     *verbose,
			Format:      *format,
			SnapshotTTL: *snapshotTTL,
			MetricsAddr: *metricsAddr,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Monitor failed: %v\n", err)
			os.Exit(1)
		}

	case "networks":
		networksFlags := flag.NewFlagSet("networks", flag.ExitOnError)
		configFile := networksFlags.String("config", "", "Configuration file (HCL)")
		networksFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		networksFlags.Parse(os.Args[2:])

		if err := cmd.RunNetworks(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Networks failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := checkFlags.String("config", "", "Configuration file (HCL)")
		checkFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose (short)")
		checkFlags.Parse(os.Args[2:])

		line := ""
		if checkFlags.NArg() > 0 {
			line = checkFlags.Arg(0)
		}
		if err := cmd.RunCheck(*configFile, line, *verbose); err != nil {
			if errors.Is(err, cmd.ErrNoMatch) {
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "version", "-version", "--version":
		cmd.RunVersion()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`ufwatch - UFW block monitor with Docker network context

Usage:
  ufwatch <command> [options]

Commands:
  monitor     Tail the journal and emit one record per UFW BLOCK event
  networks    Show the Docker networks the resolver would match against
  check       Parse and enrich a single line (argument or stdin)
  version     Print version information

Monitor options:
  -c, -config FILE      Configuration file (HCL)
  -v, -verbose          Log every captured journal line
  -format FORMAT        Output format: kv (default), toml or json
  -snapshot-ttl DUR     Docker snapshot refresh bound (0s = per event)
  -metrics-addr ADDR    Expose Prometheus metrics on ADDR
`)
}
