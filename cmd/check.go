package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"ufwatch/internal/clock"
	"ufwatch/internal/docker"
	"ufwatch/internal/enrich"
	"ufwatch/internal/output"
	"ufwatch/internal/ufw"
)

// RunCheck parses and enriches a single line, given as an argument or
// on stdin. It returns ErrNoMatch when the line holds no block event,
// which the caller maps to a non-zero exit code.
func RunCheck(configFile, line string, verbose bool) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	setupLogging(cfg)

	if line == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			return fmt.Errorf("no input line")
		}
		line = scanner.Text()
	}

	ev, ok := ufw.NewParser(cfg.Marker).Parse(line)
	if !ok {
		return ErrNoMatch
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	timeout, err := cfg.LoadTimeout()
	if err != nil {
		return err
	}

	// Enrichment stays best-effort here too: without docker the check
	// still reports the parsed fields with sentinel enrichment.
	c := &clock.RealClock{}
	loader := docker.NewLoader(
		docker.WithCommand(cfg.Docker.Command, cfg.Docker.Args...),
		docker.WithTimeout(timeout),
	)
	snap, _ := loader.Load(context.Background())
	res, matched := enrich.Resolve(ev.Interface(), snap)

	sink := output.NewStreamWriter(os.Stdout, format)
	return sink.Write(output.NewRecord(ev, res, matched, c.Now()))
}
