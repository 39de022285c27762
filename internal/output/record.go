// Package output serializes enriched block records to a sink.
package output

import (
	"time"

	"github.com/google/uuid"

	"ufwatch/internal/enrich"
	"ufwatch/internal/ufw"
)

// Record is the field-complete output form of one block event: the
// parsed fields plus the two enrichment fields, which are always
// present and fall back to the not_docker sentinel.
type Record struct {
	ID            string    `json:"id" toml:"id"`
	Timestamp     time.Time `json:"timestamp" toml:"timestamp"`
	Src           string    `json:"src,omitempty" toml:"src,omitempty"`
	Dst           string    `json:"dst,omitempty" toml:"dst,omitempty"`
	Spt           *int      `json:"spt,omitempty" toml:"spt,omitempty"`
	Dpt           *int      `json:"dpt,omitempty" toml:"dpt,omitempty"`
	Proto         string    `json:"proto,omitempty" toml:"proto,omitempty"`
	In            string    `json:"in,omitempty" toml:"in,omitempty"`
	Out           string    `json:"out,omitempty" toml:"out,omitempty"`
	DockerProject string    `json:"docker_project" toml:"docker_project"`
	DockerNetwork string    `json:"docker_network" toml:"docker_network"`
}

// NewRecord merges a parsed event with its enrichment result. An
// unmatched result leaves both enrichment fields at the sentinel.
func NewRecord(ev *ufw.BlockEvent, res enrich.Result, matched bool, ts time.Time) Record {
	r := Record{
		ID:            uuid.NewString(),
		Timestamp:     ts,
		Src:           ev.Src,
		Dst:           ev.Dst,
		Spt:           ev.Spt,
		Dpt:           ev.Dpt,
		Proto:         ev.Proto,
		In:            ev.In,
		Out:           ev.Out,
		DockerProject: enrich.NotDocker,
		DockerNetwork: enrich.NotDocker,
	}
	if matched {
		r.DockerProject = res.Project
		r.DockerNetwork = res.Network
	}
	return r
}
