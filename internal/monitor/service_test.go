package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufwatch/internal/clock"
	"ufwatch/internal/docker"
	"ufwatch/internal/enrich"
	"ufwatch/internal/events"
	"ufwatch/internal/output"
)

// memSink collects written records.
type memSink struct {
	mu   sync.Mutex
	recs []output.Record
}

func (m *memSink) Write(r output.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func (m *memSink) records() []output.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]output.Record(nil), m.recs...)
}

// staticLoader serves a fixed snapshot.
type staticLoader struct {
	snap *docker.Snapshot
}

func (s *staticLoader) Load(ctx context.Context) (*docker.Snapshot, error) {
	return s.snap, nil
}

func newTestService(lines <-chan string, sink output.Writer) *Service {
	mock := clock.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	loader := &staticLoader{snap: &docker.Snapshot{
		Networks: []docker.Network{{
			ID:      "abc123def456789",
			Name:    "myapp_default",
			Project: "myapp",
		}},
		Taken: mock.Now(),
	}}
	return New(Deps{
		Lines: lines,
		Cache: enrich.NewCache(loader, time.Minute, mock),
		Sink:  sink,
		Clock: mock,
	})
}

func runOver(t *testing.T, lines []string, sink output.Writer) {
	t.Helper()
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)

	svc := newTestService(ch, sink)
	require.NoError(t, svc.Run(context.Background()))
}

func TestRun_EndToEndDockerMatch(t *testing.T) {
	sink := &memSink{}
	runOver(t, []string{
		"kernel: [UFW BLOCK] SRC=192.168.1.100 DST=10.0.0.5 SPT=45678 DPT=80 PROTO=TCP IN=br-abc123def456 OUT=eth0",
	}, sink)

	recs := sink.records()
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "192.168.1.100", r.Src)
	assert.Equal(t, "10.0.0.5", r.Dst)
	require.NotNil(t, r.Spt)
	assert.Equal(t, 45678, *r.Spt)
	require.NotNil(t, r.Dpt)
	assert.Equal(t, 80, *r.Dpt)
	assert.Equal(t, "tcp", r.Proto)
	assert.Equal(t, "br-abc123def456", r.In)
	assert.Equal(t, "eth0", r.Out)
	assert.Equal(t, "myapp", r.DockerProject)
	assert.Equal(t, "myapp_default", r.DockerNetwork)
}

func TestRun_EndToEndNoBridge(t *testing.T) {
	sink := &memSink{}
	runOver(t, []string{
		"kernel: [UFW BLOCK] SRC=192.168.1.100 DST=10.0.0.5 SPT=45678 DPT=80 PROTO=TCP IN=eth1 OUT=eth0",
	}, sink)

	recs := sink.records()
	require.Len(t, recs, 1)
	assert.Equal(t, enrich.NotDocker, recs[0].DockerProject)
	assert.Equal(t, enrich.NotDocker, recs[0].DockerNetwork)
	assert.Equal(t, "192.168.1.100", recs[0].Src)
}

func TestRun_SkipsNonMatchingLines(t *testing.T) {
	sink := &memSink{}
	runOver(t, []string{
		"systemd[1]: Started session.",
		"kernel: [UFW BLOCK] SRC=1.1.1.1 DST=2.2.2.2 PROTO=UDP",
		"sshd[99]: Connection closed",
		"kernel: [UFW BLOCK] SRC=3.3.3.3 DST=4.4.4.4 PROTO=TCP",
	}, sink)

	recs := sink.records()
	require.Len(t, recs, 2)
	// Output order matches input line order.
	assert.Equal(t, "1.1.1.1", recs[0].Src)
	assert.Equal(t, "3.3.3.3", recs[1].Src)
}

func TestRun_ReturnsOnSourceEnd(t *testing.T) {
	ch := make(chan string)
	close(ch)
	svc := newTestService(ch, &memSink{})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after source end")
	}
}

func TestRun_CancellationStopsLoop(t *testing.T) {
	ch := make(chan string) // never closed, never written
	svc := newTestService(ch, &memSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is orderly shutdown")
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_PublishesBlockEvents(t *testing.T) {
	hub := events.NewHub()
	sub := hub.Subscribe(10, events.EventBlockDetected)

	ch := make(chan string, 1)
	ch <- "kernel: [UFW BLOCK] SRC=1.1.1.1 DST=2.2.2.2 DPT=443 PROTO=TCP IN=br-abc123def456"
	close(ch)

	mock := clock.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	loader := &staticLoader{snap: &docker.Snapshot{
		Networks: []docker.Network{{ID: "abc123def456789", Name: "myapp_default", Project: "myapp"}},
		Taken:    mock.Now(),
	}}
	svc := New(Deps{
		Lines: ch,
		Cache: enrich.NewCache(loader, time.Minute, mock),
		Sink:  &memSink{},
		Hub:   hub,
		Clock: mock,
	})
	require.NoError(t, svc.Run(context.Background()))

	select {
	case e := <-sub:
		d, ok := e.Data.(events.BlockData)
		require.True(t, ok)
		assert.Equal(t, "1.1.1.1", d.SrcIP)
		assert.Equal(t, 443, d.DstPort)
		assert.Equal(t, "myapp", d.Project)
	case <-time.After(time.Second):
		t.Fatal("no block event published")
	}
}
