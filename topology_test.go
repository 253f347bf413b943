package cachegate

import (
	"errors"
	"testing"
)

func TestParseEndpoints(t *testing.T) {
	eps, err := ParseEndpoints(" 10.0.0.1:6379, ,10.0.0.2:6380,")
	if err != nil {
		t.Fatalf("ParseEndpoints: %v", err)
	}
	if len(eps) != 2 || eps[0] != (Endpoint{"10.0.0.1", 6379}) || eps[1].String() != "10.0.0.2:6380" {
		t.Fatalf("eps=%v", eps)
	}

	for _, bad := range []string{"nohost", "h:0", "h:port", ":6379", "h:70000"} {
		var ce *ConfigError
		if _, err := ParseEndpoints(bad); !errors.As(err, &ce) {
			t.Errorf("%q: want ConfigError, got %v", bad, err)
		}
	}
}

func TestEndpointStringIPv6(t *testing.T) {
	if got := (Endpoint{Host: "::1", Port: 6379}).String(); got != "[::1]:6379" {
		t.Fatal(got)
	}
}

func TestParseTopology(t *testing.T) {
	cases := []struct {
		name     string
		sentinel bool
		master   string
		servers  string
		mode     Mode
		ok       bool
	}{
		{"static", false, "", "h:1", ModeStatic, true},
		{"static two nodes", false, "", "h:1,h:2", 0, false},
		{"static none", false, "", " , ", 0, false},
		{"sentinel", true, "mymaster", "s1:26379,s2:26379", ModeSentinel, true},
		{"sentinel no master", true, "", "s1:26379", 0, false},
		{"sentinel no sentinels", true, "m", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			topo, err := ParseTopology(tc.sentinel, tc.master, tc.servers)
			if (err == nil) != tc.ok {
				t.Fatalf("err=%v want ok=%v", err, tc.ok)
			}
			if tc.ok && topo.Mode != tc.mode {
				t.Fatalf("mode=%s", topo.Mode)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	ep := Endpoint{Host: "h", Port: 1}
	cases := []struct {
		name string
		topo Topology
		ok   bool
	}{
		{"sharded empty", Sharded(), false},
		{"sharded dup", Sharded(ep, ep), false},
		{"sharded ok", Sharded(ep, Endpoint{"h", 2}), true},
		{"static empty host", Static(Endpoint{Port: 1}), false},
		{"unknown mode", Topology{Mode: Mode(9), Endpoints: []Endpoint{ep}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.topo.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("err=%v want ok=%v", err, tc.ok)
			}
			var ce *ConfigError
			if err != nil && !errors.As(err, &ce) {
				t.Fatalf("want *ConfigError, got %T", err)
			}
		})
	}
}

func TestConstructorsRejectWrongTopology(t *testing.T) {
	ep := Endpoint{Host: "127.0.0.1", Port: 1}
	var ce *ConfigError
	if _, err := New(Options{Topology: Sharded(ep)}); !errors.As(err, &ce) {
		t.Fatalf("New(sharded): %v", err)
	}
	if _, err := NewSharded(ShardedOptions{Topology: Static(ep)}); !errors.As(err, &ce) {
		t.Fatalf("NewSharded(static): %v", err)
	}
	if _, err := NewSharded(ShardedOptions{Topology: Sharded()}); !errors.As(err, &ce) {
		t.Fatalf("NewSharded(no endpoints): %v", err)
	}
}
