package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ufwatch/internal/enrich"
	"ufwatch/internal/events"
	"ufwatch/internal/logging"
)

// Adapter subscribes to the event hub and mirrors events into the
// Prometheus registry.
type Adapter struct {
	reg *Registry
	hub *events.Hub
	log *logging.Logger
}

// NewAdapter wires the hub to the registry.
func NewAdapter(hub *events.Hub) *Adapter {
	return &Adapter{
		reg: Get(),
		hub: hub,
		log: logging.WithComponent("metrics"),
	}
}

// Run consumes hub events until ctx is done.
func (a *Adapter) Run(ctx context.Context) {
	ch := a.hub.Subscribe(256,
		events.EventBlockDetected,
		events.EventSnapshotLoaded,
		events.EventSnapshotFailed,
	)
	defer a.hub.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			a.record(e)
		}
	}
}

func (a *Adapter) record(e events.Event) {
	switch e.Type {
	case events.EventBlockDetected:
		d, ok := e.Data.(events.BlockData)
		if !ok {
			return
		}
		a.reg.BlocksTotal.WithLabelValues(d.Protocol, d.Direction).Inc()
		if d.Project != "" && d.Project != enrich.NotDocker {
			a.reg.DockerBlocksTotal.WithLabelValues(d.Project).Inc()
		}
	case events.EventSnapshotLoaded:
		d, ok := e.Data.(events.SnapshotData)
		if !ok {
			return
		}
		a.reg.SnapshotReloads.WithLabelValues("ok").Inc()
		a.reg.SnapshotSize.Set(float64(d.Networks))
	case events.EventSnapshotFailed:
		a.reg.SnapshotReloads.WithLabelValues("error").Inc()
	}
}

// Serve exposes /metrics on addr until ctx is done. Listener errors
// are logged, never fatal.
func Serve(ctx context.Context, addr string) {
	log := logging.WithComponent("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Metrics listener failed", "error", err)
	}
}
