package cachegate

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is one host:port.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string { return net.JoinHostPort(e.Host, strconv.Itoa(e.Port)) }

// ParseEndpoint parses "host:port".
func ParseEndpoint(s string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return Endpoint{}, &ConfigError{Field: "endpoint", Reason: strconv.Quote(s), Err: err}
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return Endpoint{}, &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("%q: bad port", s)}
	}
	if host == "" {
		return Endpoint{}, &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("%q: empty host", s)}
	}
	return Endpoint{Host: host, Port: p}, nil
}

// ParseEndpoints parses a comma separated list. Blank entries are skipped.
func ParseEndpoints(s string) ([]Endpoint, error) {
	var out []Endpoint
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ep, err := ParseEndpoint(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

// Mode selects how endpoints are used.
type Mode uint8

const (
	// ModeStatic talks to a single node.
	ModeStatic Mode = iota
	// ModeSharded spreads keys over all endpoints.
	ModeSharded
	// ModeSentinel resolves the master through a sentinel set.
	ModeSentinel
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeSharded:
		return "sharded"
	case ModeSentinel:
		return "sentinel"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// Topology describes the backend layout. For ModeSentinel, Endpoints are the
// sentinels, not the data nodes.
type Topology struct {
	Mode       Mode
	Endpoints  []Endpoint
	MasterName string
}

func Static(ep Endpoint) Topology { return Topology{Mode: ModeStatic, Endpoints: []Endpoint{ep}} }

func Sharded(eps ...Endpoint) Topology { return Topology{Mode: ModeSharded, Endpoints: eps} }

func Sentinel(master string, sentinels ...Endpoint) Topology {
	return Topology{Mode: ModeSentinel, Endpoints: sentinels, MasterName: master}
}

// ParseTopology builds a Static or Sentinel topology from a server list.
// Without sentinel the list must hold exactly one node.
func ParseTopology(useSentinel bool, master, servers string) (Topology, error) {
	eps, err := ParseEndpoints(servers)
	if err != nil {
		return Topology{}, err
	}
	var t Topology
	if useSentinel {
		t = Sentinel(master, eps...)
	} else {
		if len(eps) != 1 {
			return Topology{}, &ConfigError{
				Field:  "servers",
				Reason: fmt.Sprintf("without sentinel exactly one node is required, got %d", len(eps)),
			}
		}
		t = Static(eps[0])
	}
	return t, t.Validate()
}

func (t Topology) Validate() error {
	switch t.Mode {
	case ModeStatic:
		if len(t.Endpoints) != 1 {
			return &ConfigError{Field: "topology", Reason: fmt.Sprintf("static needs exactly one endpoint, got %d", len(t.Endpoints))}
		}
	case ModeSharded:
		if len(t.Endpoints) == 0 {
			return &ConfigError{Field: "topology", Reason: "sharded needs at least one endpoint"}
		}
		seen := make(map[string]struct{}, len(t.Endpoints))
		for _, ep := range t.Endpoints {
			if _, dup := seen[ep.String()]; dup {
				return &ConfigError{Field: "topology", Reason: "duplicate shard " + ep.String()}
			}
			seen[ep.String()] = struct{}{}
		}
	case ModeSentinel:
		if strings.TrimSpace(t.MasterName) == "" {
			return &ConfigError{Field: "topology", Reason: "sentinel needs a master name"}
		}
		if len(t.Endpoints) == 0 {
			return &ConfigError{Field: "topology", Reason: "sentinel needs at least one sentinel address"}
		}
	default:
		return &ConfigError{Field: "topology", Reason: "unknown mode " + t.Mode.String()}
	}
	for _, ep := range t.Endpoints {
		if ep.Host == "" || ep.Port <= 0 {
			return &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("%q is incomplete", ep.String())}
		}
	}
	return nil
}

func (t Topology) addrs() []string {
	out := make([]string, len(t.Endpoints))
	for i, ep := range t.Endpoints {
		out[i] = ep.String()
	}
	return out
}
