package main

import (
	"fmt"
)

// CheckInvariants verifies the structural fat-tree properties of t and
// returns an *InvariantError listing every violation found.
func (t *Topology) CheckInvariants() error {
	var v []string
	add := func(format string, args ...interface{}) {
		v = append(v, fmt.Sprintf(format, args...))
	}

	want, err := ComputeCardinalities(t.K)
	if err != nil {
		return err
	}
	if got := t.Cardinalities(); got != want {
		add("cardinalities %+v, want %+v", got, want)
	}

	for i, n := range t.nodes {
		if n.ID != i {
			add("node %s has id %d at position %d", n, n.ID, i)
		}
	}

	byKind := t.LinksByKind()
	for kind, n := range ExpectedLinks(t.K) {
		if got := byKind[kind]; got != n {
			add("%d %s links, want %d", got, kind, n)
		}
	}

	for _, l := range t.Links {
		for _, ep := range []Endpoint{l.A, l.B} {
			if n, ok := t.Node(ep.Node.ID); !ok || n != ep.Node {
				add("link %d references unknown node %s", l.ID, ep.Node)
			}
		}
		if between := t.LinksBetween(l.A.Node, l.B.Node); len(between) > 1 && between[0] != l {
			add("link %d duplicates link %d (%s)", l.ID, between[0].ID, l)
		}
	}

	half := t.K / 2
	for _, n := range t.nodes {
		up, down := t.layerDegrees(n)
		switch n.Layer {
		case LayerCore:
			if down != t.K || up != 0 {
				add("%s has %d up / %d down links, want 0 / %d", n, up, down, t.K)
			}
		case LayerAggregation, LayerEdge:
			if up != half || down != half {
				add("%s has %d up / %d down links, want %d / %d", n, up, down, half, half)
			}
		case LayerHost:
			if up != 1 || down != 0 {
				add("%s has %d up / %d down links, want 1 / 0", n, up, down)
			}
		}
		for _, peer := range t.Neighbors(n) {
			if n.Layer != LayerCore && peer.Layer != LayerCore && peer.Pod != n.Pod {
				add("%s (pod %d) linked to %s in pod %d", n, n.Pod, peer, peer.Pod)
			}
		}
	}

	if len(v) > 0 {
		return &InvariantError{Violations: v}
	}
	return nil
}

// layerDegrees splits the degree of n into links toward the layer above and
// links toward the layer below. A link that skips or stays within a layer
// counts toward neither.
func (t *Topology) layerDegrees(n *Node) (up, down int) {
	for _, peer := range t.Neighbors(n) {
		switch peer.Layer {
		case n.Layer - 1:
			up++
		case n.Layer + 1:
			down++
		}
	}
	return up, down
}
