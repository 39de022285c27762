// Package monitor runs the parse-enrich pipeline: it consumes the
// journal line stream, parses block events, enriches them with Docker
// network context and hands finished records to the output sink.
package monitor

import (
	"context"

	"ufwatch/internal/clock"
	"ufwatch/internal/enrich"
	"ufwatch/internal/events"
	"ufwatch/internal/logging"
	"ufwatch/internal/metrics"
	"ufwatch/internal/output"
	"ufwatch/internal/ufw"
)

// Service is the monitor loop. Strictly one line is in flight at a
// time, so output order always matches journal order.
type Service struct {
	lines   <-chan string
	parser  *ufw.Parser
	cache   *enrich.Cache
	sink    output.Writer
	hub     *events.Hub
	clock   clock.Clock
	reg     *metrics.Registry
	log     *logging.Logger
	verbose bool
}

// Deps are the collaborators of a Service. Lines, Cache and Sink are
// required; the rest default.
type Deps struct {
	Lines   <-chan string
	Parser  *ufw.Parser
	Cache   *enrich.Cache
	Sink    output.Writer
	Hub     *events.Hub
	Clock   clock.Clock
	Verbose bool
}

// New assembles a Service.
func New(d Deps) *Service {
	if d.Parser == nil {
		d.Parser = ufw.NewParser("")
	}
	if d.Clock == nil {
		d.Clock = &clock.RealClock{}
	}
	if d.Hub == nil {
		d.Hub = events.NewHub()
	}
	return &Service{
		lines:   d.Lines,
		parser:  d.Parser,
		cache:   d.Cache,
		sink:    d.Sink,
		hub:     d.Hub,
		clock:   d.Clock,
		reg:     metrics.Get(),
		log:     logging.WithComponent("monitor"),
		verbose: d.Verbose,
	}
}

// Run consumes the line stream until it closes or ctx is cancelled.
// Both are orderly shutdown; per-line problems never end the loop.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("Monitoring journal for UFW BLOCK events")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Monitor cancelled, shutting down")
			return nil
		case line, ok := <-s.lines:
			if !ok {
				s.log.Info("Line source ended, shutting down")
				return nil
			}
			s.process(ctx, line)
		}
	}
}

// process handles exactly one journal line.
func (s *Service) process(ctx context.Context, line string) {
	s.reg.LinesScanned.Inc()
	if s.verbose {
		s.log.Debug("Captured line", "line", line)
	}

	ev, ok := s.parser.Parse(line)
	if !ok {
		return
	}

	// Snapshot errors degrade to the stale (possibly nil) snapshot;
	// the cache already logged the failure.
	snap, _ := s.cache.Snapshot(ctx)
	if snap != nil {
		s.reg.SnapshotAge.Set(snap.Age(s.clock.Now()).Seconds())
	}
	res, matched := enrich.Resolve(ev.Interface(), snap)

	rec := output.NewRecord(ev, res, matched, s.clock.Now())
	if err := s.sink.Write(rec); err != nil {
		s.log.Error("Failed to write record", "error", err)
	}

	s.hub.EmitBlock(events.BlockData{
		SrcIP:     rec.Src,
		DstIP:     rec.Dst,
		DstPort:   intOrZero(rec.Dpt),
		Protocol:  rec.Proto,
		Interface: ev.Interface(),
		Direction: direction(ev),
		Project:   rec.DockerProject,
		Network:   rec.DockerNetwork,
	})

	s.log.Info("UFW block detected",
		"src", rec.Src,
		"dst", rec.Dst,
		"proto", rec.Proto,
		"project", rec.DockerProject,
		"network", rec.DockerNetwork,
	)
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// direction classifies the event by its interface bindings. Forwarded
// traffic carries both; the inbound interface decides.
func direction(ev *ufw.BlockEvent) string {
	switch {
	case ev.In != "":
		return "in"
	case ev.Out != "":
		return "out"
	default:
		return "unknown"
	}
}
