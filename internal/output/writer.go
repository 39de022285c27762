package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Format selects the serialization of emitted records.
type Format string

const (
	// FormatKV emits space-separated key=value pairs with bare scalar
	// values, one record per line.
	FormatKV Format = "kv"
	// FormatTOML emits one TOML document per record.
	FormatTOML Format = "toml"
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatKV:
		return FormatKV, nil
	case FormatTOML:
		return FormatTOML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want kv, toml or json)", s)
}

// Writer is the sink the monitor hands finished records to.
type Writer interface {
	Write(Record) error
}

// StreamWriter serializes records to an io.Writer. Safe for concurrent
// use; records are written whole, never interleaved.
type StreamWriter struct {
	mu     sync.Mutex
	out    io.Writer
	format Format
}

// NewStreamWriter returns a StreamWriter emitting the given format.
func NewStreamWriter(out io.Writer, format Format) *StreamWriter {
	return &StreamWriter{out: out, format: format}
}

// Write serializes one record.
func (w *StreamWriter) Write(r Record) error {
	var buf []byte
	var err error

	switch w.format {
	case FormatTOML:
		buf, err = toml.Marshal(r)
	case FormatJSON:
		buf, err = json.Marshal(r)
		buf = append(buf, '\n')
	default:
		buf = appendKV(nil, r)
	}
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.out.Write(buf)
	return err
}

// appendKV renders the kv format with its fixed field order. Absent
// event fields are omitted; the enrichment fields never are.
func appendKV(buf []byte, r Record) []byte {
	pairs := make([]string, 0, 9)
	add := func(key, val string) {
		if val != "" {
			pairs = append(pairs, key+"="+val)
		}
	}
	add("src", r.Src)
	add("dst", r.Dst)
	if r.Spt != nil {
		add("spt", strconv.Itoa(*r.Spt))
	}
	if r.Dpt != nil {
		add("dpt", strconv.Itoa(*r.Dpt))
	}
	add("proto", r.Proto)
	add("in", r.In)
	add("out", r.Out)
	// Enrichment fields are always present, sentinel included.
	pairs = append(pairs, "docker_project="+r.DockerProject)
	pairs = append(pairs, "docker_network="+r.DockerNetwork)

	buf = append(buf, strings.Join(pairs, " ")...)
	return append(buf, '\n')
}
