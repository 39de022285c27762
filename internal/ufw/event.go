// Package ufw parses UFW BLOCK lines from the system journal into
// structured events. Parsing is a pure projection: recognized KEY=VALUE
// tokens are extracted, everything else on the line is ignored.
package ufw

// BlockEvent is the parsed form of one UFW BLOCK log line.
// Every field is optional; the kernel omits interface bindings for
// rules without one, and ICMP traffic carries no ports. Nil port
// pointers mean "absent", distinct from port 0.
type BlockEvent struct {
	Src   string `json:"src,omitempty" toml:"src,omitempty"`
	Dst   string `json:"dst,omitempty" toml:"dst,omitempty"`
	Spt   *int   `json:"spt,omitempty" toml:"spt,omitempty"`
	Dpt   *int   `json:"dpt,omitempty" toml:"dpt,omitempty"`
	Proto string `json:"proto,omitempty" toml:"proto,omitempty"`
	In    string `json:"in,omitempty" toml:"in,omitempty"`
	Out   string `json:"out,omitempty" toml:"out,omitempty"`
}

// Interface returns the interface name to use for container-network
// matching: the inbound interface when present, otherwise the outbound.
func (e *BlockEvent) Interface() string {
	if e.In != "" {
		return e.In
	}
	return e.Out
}
