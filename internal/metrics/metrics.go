// Package metrics exposes Prometheus metrics for the monitor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all monitor metrics.
type Registry struct {
	// Line stream
	LinesScanned prometheus.Counter
	ParseDrops   *prometheus.CounterVec

	// Block events
	BlocksTotal       *prometheus.CounterVec
	DockerBlocksTotal *prometheus.CounterVec

	// Snapshot loader
	SnapshotReloads *prometheus.CounterVec
	SnapshotAge     prometheus.Gauge
	SnapshotSize    prometheus.Gauge
}

// Get returns the singleton metrics registry, creating it on first use.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry(prometheus.DefaultRegisterer)
	})
	return registry
}

func newRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		LinesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "ufwatch_lines_scanned_total",
			Help: "Journal lines consumed from the line source.",
		}),
		ParseDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ufwatch_parse_drops_total",
			Help: "Recognized fields dropped because their value was malformed.",
		}, []string{"reason"}),
		BlocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ufwatch_blocks_total",
			Help: "UFW BLOCK events parsed, by protocol and direction.",
		}, []string{"proto", "direction"}),
		DockerBlocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ufwatch_docker_blocks_total",
			Help: "Block events attributed to a Docker network, by compose project.",
		}, []string{"project"}),
		SnapshotReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ufwatch_snapshot_reloads_total",
			Help: "Docker network snapshot reload attempts, by result.",
		}, []string{"result"}),
		SnapshotAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ufwatch_snapshot_age_seconds",
			Help: "Age of the snapshot serving enrichment.",
		}),
		SnapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ufwatch_snapshot_networks",
			Help: "Networks in the current snapshot.",
		}),
	}
}
