package shard

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestNewRejectsBadNodeSets(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoNodes) {
		t.Fatalf("want ErrNoNodes, got %v", err)
	}
	if _, err := New([]string{"a:1", "a:1"}); err == nil {
		t.Fatal("duplicate nodes accepted")
	}
}

func TestRoutingIsStable(t *testing.T) {
	r, err := New([]string{"a:1", "b:1", "c:1"})
	if err != nil {
		t.Fatal(err)
	}
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.String().Draw(t, "key")
		first := r.Index(k)
		if r.Index(k) != first {
			t.Fatal("routing changed between calls")
		}
		if r.Nodes()[first] != r.Node(k) {
			t.Fatal("Index and Node disagree")
		}
	})
}

func TestAllNodesReceiveKeys(t *testing.T) {
	r, _ := New([]string{"a:1", "b:1", "c:1", "d:1"})
	hits := make([]int, r.Len())
	for i := 0; i < 4000; i++ {
		hits[r.Index(fmt.Sprintf("user:%d", i))]++
	}
	for i, n := range hits {
		if n < 500 {
			t.Fatalf("node %d got only %d of 4000 keys: %v", i, n, hits)
		}
	}
}

func TestRemovingNodeOnlyMovesItsKeys(t *testing.T) {
	full, _ := New([]string{"a:1", "b:1", "c:1"})
	less, _ := New([]string{"a:1", "b:1"})
	for i := 0; i < 2000; i++ {
		k := fmt.Sprintf("k%d", i)
		if owner := full.Node(k); owner != "c:1" && less.Node(k) != owner {
			t.Fatalf("key %s moved from %s to %s", k, owner, less.Node(k))
		}
	}
}
