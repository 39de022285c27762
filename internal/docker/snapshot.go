// Package docker loads point-in-time snapshots of Docker network
// metadata by invoking the docker CLI. A snapshot is immutable once
// built; callers replace it wholesale on refresh.
package docker

import (
	"strings"
	"time"
)

// ComposeProjectLabel is the label Docker Compose stamps on networks it
// creates.
const ComposeProjectLabel = "com.docker.compose.project"

// bridgeIDLen is the number of leading network-ID characters that form
// the bridge interface suffix (br-<id>).
const bridgeIDLen = 12

// Network is one entry of a snapshot.
type Network struct {
	ID      string
	Name    string
	Project string
	Labels  map[string]string
}

// BridgeID returns the identifier embedded in the network's bridge
// interface name: the first 12 characters of the network ID.
func (n Network) BridgeID() string {
	if len(n.ID) < bridgeIDLen {
		return n.ID
	}
	return n.ID[:bridgeIDLen]
}

// Snapshot is a point-in-time view of the host's Docker networks.
// Entries are never mutated after construction.
type Snapshot struct {
	Networks []Network
	Taken    time.Time
}

// Lookup finds the network whose bridge identifier exactly matches id.
// When a malformed snapshot contains duplicates, the first entry in
// snapshot order wins.
func (s *Snapshot) Lookup(id string) (Network, bool) {
	if s == nil || id == "" {
		return Network{}, false
	}
	for _, n := range s.Networks {
		if n.BridgeID() == id {
			return n, true
		}
	}
	return Network{}, false
}

// Age reports how old the snapshot is at time now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return now.Sub(s.Taken)
}

// parseLabels splits the docker CLI's comma-joined "k=v,k=v" label
// string into a map. Empty input yields an empty map.
func parseLabels(raw string) map[string]string {
	labels := make(map[string]string)
	if raw == "" {
		return labels
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			continue
		}
		labels[k] = v
	}
	return labels
}
