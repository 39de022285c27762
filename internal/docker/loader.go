package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"ufwatch/internal/clock"
	"ufwatch/internal/logging"
)

// ErrSourceUnavailable wraps every failure to obtain network metadata:
// the docker CLI could not be invoked, timed out, or returned output we
// cannot parse. Callers degrade to a stale snapshot instead of failing.
var ErrSourceUnavailable = errors.New("docker network source unavailable")

// DefaultTimeout bounds a single CLI invocation.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds the wait for output pipes after the child is
// killed. Wrappers like sudo or sh can leave a grandchild holding
// stdout; without this bound Output blocks until the grandchild
// exits, far past the configured timeout.
const waitDelay = time.Second

// networkJSON mirrors one object of `docker network ls --format json`.
type networkJSON struct {
	ID     string `json:"ID"`
	Name   string `json:"Name"`
	Labels string `json:"Labels"`
}

// Loader invokes the docker CLI and parses its output into Snapshots.
type Loader struct {
	command string
	args    []string
	timeout time.Duration
	clock   clock.Clock
	log     *logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithCommand overrides the CLI command and arguments.
func WithCommand(command string, args ...string) Option {
	return func(l *Loader) {
		l.command = command
		l.args = args
	}
}

// WithTimeout bounds each CLI invocation.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithClock injects a time source, used to stamp snapshots.
func WithClock(c clock.Clock) Option {
	return func(l *Loader) { l.clock = c }
}

// NewLoader returns a Loader running `docker network ls --format {{json .}}`
// unless reconfigured by options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		command: "docker",
		args:    []string{"network", "ls", "--format", "{{json .}}"},
		timeout: DefaultTimeout,
		clock:   &clock.RealClock{},
		log:     logging.WithComponent("docker"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load invokes the metadata source once and parses its output. Any
// failure is reported wrapped in ErrSourceUnavailable.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.command, l.args...)
	cmd.WaitDelay = waitDelay
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, l.command, err)
	}

	snap, err := ParseSnapshot(out, l.clock.Now())
	if err != nil {
		return nil, err
	}
	l.log.Debug("Loaded Docker networks", "count", len(snap.Networks))
	return snap, nil
}

// ParseSnapshot parses CLI output into a Snapshot. Both output shapes
// the docker CLI produces are accepted: one JSON object per line
// (`--format {{json .}}`) and a single JSON array (API proxies and
// newer `--format json`).
func ParseSnapshot(out []byte, taken time.Time) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(out)

	var raw []networkJSON
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: malformed network array: %v", ErrSourceUnavailable, err)
		}
	} else {
		for _, line := range bytes.Split(trimmed, []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			var n networkJSON
			if err := json.Unmarshal(line, &n); err != nil {
				return nil, fmt.Errorf("%w: malformed network entry: %v", ErrSourceUnavailable, err)
			}
			raw = append(raw, n)
		}
	}

	snap := &Snapshot{Taken: taken}
	for _, n := range raw {
		labels := parseLabels(n.Labels)
		snap.Networks = append(snap.Networks, Network{
			ID:      n.ID,
			Name:    n.Name,
			Project: labels[ComposeProjectLabel],
			Labels:  labels,
		})
	}
	return snap, nil
}
