// Package journal streams lines from the systemd journal by running
// journalctl in follow mode. It is the only unbounded input of the
// monitor; everything downstream is per-line and stateless.
package journal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"ufwatch/internal/logging"
)

// maxLineSize bounds a single journal line. Kernel firewall lines are
// well under 1KB; the margin covers pathological unit output sharing
// the stream. Longer lines are discarded, never fatal.
const maxLineSize = 1024 * 1024

// Source tails an external process's stdout line by line.
type Source struct {
	command string
	args    []string
	log     *logging.Logger

	lines chan string

	mu  sync.Mutex
	err error
}

// NewSource returns a Source running `journalctl -f -o cat` unless
// given another command.
func NewSource(command string, args ...string) *Source {
	if command == "" {
		command = "journalctl"
		args = []string{"-f", "-o", "cat"}
	}
	return &Source{
		command: command,
		args:    args,
		log:     logging.WithComponent("journal"),
		lines:   make(chan string),
	}
}

// Start launches the child process and begins streaming. It fails only
// when the process cannot be started at all; that is the one fatal
// startup condition of the whole pipeline.
//
// Cancelling ctx kills the child; the reader goroutine then stops
// reading, waits for the child to be reaped and closes the line
// channel, so no invocation is left orphaned.
func (s *Source) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	// Bound the time between kill and reap so a slow-dying child
	// cannot wedge shutdown.
	cmd.WaitDelay = 5 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe to %s: %w", s.command, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.command, err)
	}
	s.log.Info("Line source started", "command", s.command, "pid", cmd.Process.Pid)

	go func() {
		defer close(s.lines)
		reader := bufio.NewReaderSize(stdout, 64*1024)

		var readErr error
	read:
		for {
			line, err := s.readLine(reader)
			if err != nil {
				readErr = err
				break
			}
			select {
			case s.lines <- line:
			case <-ctx.Done():
				break read
			}
		}

		waitErr := cmd.Wait()
		s.mu.Lock()
		if readErr != nil && readErr != io.EOF && ctx.Err() == nil {
			s.err = readErr
		} else if waitErr != nil && ctx.Err() == nil {
			s.err = waitErr
		}
		s.mu.Unlock()
		s.log.Info("Line source terminated")
	}()
	return nil
}

// readLine reads the next line, discarding any line over maxLineSize
// rather than failing the stream.
func (s *Source) readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	oversized := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		if !oversized {
			if len(buf)+len(chunk) > maxLineSize {
				oversized = true
				buf = nil
				s.log.Warn("Discarding oversized journal line", "limit", maxLineSize)
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		if oversized {
			oversized = false
			continue
		}
		return string(buf), nil
	}
}

// Lines is the stream of journal lines. The channel closes when the
// child exits or the context is cancelled.
func (s *Source) Lines() <-chan string {
	return s.lines
}

// Err reports why the stream ended, nil for a clean end or
// cancellation. Valid after Lines is closed.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
