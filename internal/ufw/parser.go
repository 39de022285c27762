package ufw

import (
	"strconv"
	"strings"

	"ufwatch/internal/logging"
	"ufwatch/internal/metrics"
)

// Marker is the default marker identifying block events in the
// journal stream. Matching is case-insensitive.
const Marker = "[UFW BLOCK]"

// maxPort is the highest valid TCP/UDP port.
const maxPort = 65535

// Parser extracts block events from journal lines. The zero value is
// not usable; NewParser fills in the default marker.
type Parser struct {
	marker string
}

// NewParser returns a Parser matching lines on the given marker,
// case-insensitively. An empty marker selects the default.
func NewParser(marker string) *Parser {
	if marker == "" {
		marker = Marker
	}
	return &Parser{marker: strings.ToUpper(marker)}
}

var defaultParser = NewParser(Marker)

// Parse extracts a BlockEvent using the default marker. See
// Parser.Parse.
func Parse(line string) (*BlockEvent, bool) {
	return defaultParser.Parse(line)
}

// Parse extracts a BlockEvent from one journal line. The second return
// is false when the line does not contain the marker - that is the
// common case and not an error.
//
// Recognized keys are SRC, DST, SPT, DPT, PROTO, IN and OUT
// (case-insensitive). Unrecognized KEY=VALUE tokens are dropped. A
// malformed value for a numeric key drops that single field rather
// than rejecting the line.
//
// Parse is pure and safe for concurrent use.
func (p *Parser) Parse(line string) (*BlockEvent, bool) {
	if !strings.Contains(strings.ToUpper(line), p.marker) {
		return nil, false
	}

	ev := &BlockEvent{}
	for _, tok := range strings.Fields(line) {
		key, val, found := strings.Cut(tok, "=")
		if !found || key == "" {
			continue
		}
		switch strings.ToUpper(key) {
		case "SRC":
			ev.Src = val
		case "DST":
			ev.Dst = val
		case "SPT":
			ev.Spt = parsePort(key, val)
		case "DPT":
			ev.Dpt = parsePort(key, val)
		case "PROTO":
			ev.Proto = strings.ToLower(val)
		case "IN":
			ev.In = val
		case "OUT":
			ev.Out = val
		}
	}
	return ev, true
}

// parsePort returns nil for values that are not valid port numbers.
func parsePort(key, val string) *int {
	n, err := strconv.Atoi(val)
	if err != nil {
		dropField(key, val, "not_numeric")
		return nil
	}
	if n < 0 || n > maxPort {
		dropField(key, val, "out_of_range")
		return nil
	}
	return &n
}

func dropField(key, val, reason string) {
	logging.Debug("Dropping malformed port field", "key", key, "value", val, "reason", reason)
	metrics.Get().ParseDrops.WithLabelValues(reason).Inc()
}
