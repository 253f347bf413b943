// Package shard routes keys to endpoints with rendezvous hashing. Adding or
// removing a node only remaps the keys owned by that node.
package shard

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

var ErrNoNodes = errors.New("shard: no nodes")

// Router maps keys to node names. It is immutable and safe for concurrent use.
type Router struct {
	nodes []string
	index map[string]int
	r     *rendezvous.Rendezvous
}

// New builds a router over nodes. Node names must be unique.
func New(nodes []string) (*Router, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("shard: duplicate node %q", n)
		}
		index[n] = i
	}
	cp := append([]string(nil), nodes...)
	return &Router{
		nodes: cp,
		index: index,
		r:     rendezvous.New(cp, xxhash.Sum64String),
	}, nil
}

// Node returns the node owning key.
func (r *Router) Node(key string) string { return r.r.Lookup(key) }

// Index returns the position of the owning node in the slice passed to New.
func (r *Router) Index(key string) int { return r.index[r.r.Lookup(key)] }

func (r *Router) Nodes() []string { return append([]string(nil), r.nodes...) }

func (r *Router) Len() int { return len(r.nodes) }
