// Package enrich maps kernel bridge interface names observed in block
// events to the Docker Compose project and network behind them.
package enrich

import (
	"regexp"

	"ufwatch/internal/docker"
)

// NotDocker is the sentinel emitted when enrichment was attempted but
// found no match. It is distinct from "field absent": the two
// enrichment fields are always present in output records.
const NotDocker = "not_docker"

// bridgePattern matches the interface names Docker assigns to
// user-defined bridge networks: a fixed prefix plus the first 12 hex
// characters of the network ID.
var bridgePattern = regexp.MustCompile(`^br-([0-9a-f]{12})$`)

// Result is a resolved workload identity.
type Result struct {
	Project string
	Network string
}

// BridgeID extracts the network identifier embedded in a Docker bridge
// interface name. Returns false for any other interface name,
// including the empty string.
func BridgeID(iface string) (string, bool) {
	m := bridgePattern.FindStringSubmatch(iface)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Resolve maps an interface name to its Docker project and network
// using the given snapshot. Non-bridge interface names short-circuit
// to no match without consulting the snapshot.
//
// A matched network without a compose project label still counts as a
// match; the project falls back to the NotDocker sentinel while the
// network name is reported. Pure and deterministic given its snapshot.
func Resolve(iface string, snap *docker.Snapshot) (Result, bool) {
	id, ok := BridgeID(iface)
	if !ok {
		return Result{}, false
	}
	net, ok := snap.Lookup(id)
	if !ok {
		return Result{}, false
	}
	res := Result{Project: net.Project, Network: net.Name}
	if res.Project == "" {
		res.Project = NotDocker
	}
	if res.Network == "" {
		res.Network = NotDocker
	}
	return res, true
}
