package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"ufwatch/internal/docker"
)

// RunNetworks loads one Docker network snapshot and prints what the
// resolver would see: bridge id, network name and compose project.
func RunNetworks(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)
	timeout, err := cfg.LoadTimeout()
	if err != nil {
		return err
	}

	loader := docker.NewLoader(
		docker.WithCommand(cfg.Docker.Command, cfg.Docker.Args...),
		docker.WithTimeout(timeout),
	)
	snap, err := loader.Load(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BRIDGE\tNETWORK\tPROJECT")
	for _, n := range snap.Networks {
		project := n.Project
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "br-%s\t%s\t%s\n", n.BridgeID(), n.Name, project)
	}
	return w.Flush()
}
