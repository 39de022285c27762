// Package events provides a small pub/sub bus for ufwatch.
// Block detections and snapshot lifecycle changes flow through the hub
// so sinks (metrics, future exporters) stay decoupled from the monitor.
package events

import "time"

// EventType identifies the category of event.
type EventType string

const (
	// EventBlockDetected fires for every parsed UFW BLOCK line.
	EventBlockDetected EventType = "block.detected"

	// Snapshot lifecycle events
	EventSnapshotLoaded EventType = "snapshot.loaded"
	EventSnapshotFailed EventType = "snapshot.failed"
)

// Event is the message passed through the bus.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"` // Component that emitted: "monitor", "enrich"
	Data      interface{} `json:"data"`   // Type-specific payload
}

// BlockData is the payload for EventBlockDetected.
type BlockData struct {
	SrcIP     string `json:"src_ip,omitempty"`
	DstIP     string `json:"dst_ip,omitempty"`
	DstPort   int    `json:"dst_port,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	Interface string `json:"interface,omitempty"`
	Direction string `json:"direction,omitempty"`
	Project   string `json:"project"`
	Network   string `json:"network"`
}

// SnapshotData is the payload for the snapshot lifecycle events.
type SnapshotData struct {
	Networks int    `json:"networks,omitempty"`
	Error    string `json:"error,omitempty"`
}
