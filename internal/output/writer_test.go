package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufwatch/internal/enrich"
	"ufwatch/internal/ufw"
)

var recTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func intp(n int) *int { return &n }

func sampleEvent() *ufw.BlockEvent {
	return &ufw.BlockEvent{
		Src:   "192.168.1.100",
		Dst:   "10.0.0.5",
		Spt:   intp(45678),
		Dpt:   intp(80),
		Proto: "tcp",
		In:    "br-abc123def456",
		Out:   "eth0",
	}
}

func TestNewRecord_Matched(t *testing.T) {
	rec := NewRecord(sampleEvent(), enrich.Result{Project: "myapp", Network: "myapp_default"}, true, recTime)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, recTime, rec.Timestamp)
	assert.Equal(t, "myapp", rec.DockerProject)
	assert.Equal(t, "myapp_default", rec.DockerNetwork)
}

func TestNewRecord_UnmatchedUsesSentinel(t *testing.T) {
	rec := NewRecord(sampleEvent(), enrich.Result{}, false, recTime)

	assert.Equal(t, enrich.NotDocker, rec.DockerProject)
	assert.Equal(t, enrich.NotDocker, rec.DockerNetwork)
}

func TestStreamWriter_KV(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatKV)

	rec := NewRecord(sampleEvent(), enrich.Result{Project: "myapp", Network: "myapp_default"}, true, recTime)
	require.NoError(t, w.Write(rec))

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Equal(t,
		"src=192.168.1.100 dst=10.0.0.5 spt=45678 dpt=80 proto=tcp in=br-abc123def456 out=eth0 "+
			"docker_project=myapp docker_network=myapp_default",
		line)
}

func TestStreamWriter_KVOmitsAbsentFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatKV)

	ev := &ufw.BlockEvent{Src: "1.2.3.4", Proto: "icmp"}
	require.NoError(t, w.Write(NewRecord(ev, enrich.Result{}, false, recTime)))

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Equal(t, "src=1.2.3.4 proto=icmp docker_project=not_docker docker_network=not_docker", line)
}

func TestStreamWriter_KVRoundTrip(t *testing.T) {
	// serialize(parse(line)) reproduces the recognized key-value
	// content of the input.
	line := "[UFW BLOCK] SRC=192.168.1.100 DST=10.0.0.5 SPT=45678 DPT=80 PROTO=TCP IN=br-abc123def456 OUT=eth0"
	ev, ok := ufw.Parse(line)
	require.True(t, ok)

	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatKV)
	require.NoError(t, w.Write(NewRecord(ev, enrich.Result{}, false, recTime)))

	got := map[string]string{}
	for _, pair := range strings.Fields(strings.TrimSpace(buf.String())) {
		k, v, _ := strings.Cut(pair, "=")
		got[k] = v
	}
	assert.Equal(t, map[string]string{
		"src":            "192.168.1.100",
		"dst":            "10.0.0.5",
		"spt":            "45678",
		"dpt":            "80",
		"proto":          "tcp",
		"in":             "br-abc123def456",
		"out":            "eth0",
		"docker_project": "not_docker",
		"docker_network": "not_docker",
	}, got)
}

func TestStreamWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatJSON)

	rec := NewRecord(sampleEvent(), enrich.Result{Project: "myapp", Network: "myapp_default"}, true, recTime)
	require.NoError(t, w.Write(rec))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "192.168.1.100", got["src"])
	assert.Equal(t, float64(80), got["dpt"])
	assert.Equal(t, "myapp", got["docker_project"])
	assert.NotContains(t, buf.String(), `"spt":null`)
}

func TestStreamWriter_JSONAbsentPortsOmitted(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatJSON)

	ev := &ufw.BlockEvent{Src: "1.2.3.4", Proto: "icmp"}
	require.NoError(t, w.Write(NewRecord(ev, enrich.Result{}, false, recTime)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	_, hasSpt := got["spt"]
	assert.False(t, hasSpt)
	assert.Equal(t, "not_docker", got["docker_network"])
}

func TestStreamWriter_TOML(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, FormatTOML)

	rec := NewRecord(sampleEvent(), enrich.Result{Project: "myapp", Network: "myapp_default"}, true, recTime)
	require.NoError(t, w.Write(rec))

	var got Record
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, rec.Src, got.Src)
	require.NotNil(t, got.Dpt)
	assert.Equal(t, 80, *got.Dpt)
	assert.Equal(t, "myapp_default", got.DockerNetwork)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"kv", "KV", "toml", "json", "JSON"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}
