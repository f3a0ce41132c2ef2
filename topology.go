package main

import (
	"fmt"
)

// Cardinalities holds the node count of each fat-tree layer.
type Cardinalities struct {
	Core        int
	Aggregation int
	Edge        int
	Hosts       int
}

// Total returns the number of nodes across all layers.
func (c Cardinalities) Total() int {
	return c.Core + c.Aggregation + c.Edge + c.Hosts
}

// MaxArity bounds k so every derived count fits comfortably in an int and
// the per-layer ASN ranges stay disjoint (k=256 gives 4194304 hosts).
const MaxArity = 256

// ValidateArity rejects any k that cannot split evenly into up and down ports.
func ValidateArity(k int) error {
	if k < 2 {
		return NewInvalidParameterError("k", k, "must be at least 2")
	}
	if k > MaxArity {
		return NewInvalidParameterError("k", k, fmt.Sprintf("must be at most %d", MaxArity))
	}
	if k%2 != 0 {
		return NewInvalidParameterError("k", k, "must be even")
	}
	return nil
}

// ComputeCardinalities derives the layer sizes for arity k.
// Odd k is rejected rather than floored.
func ComputeCardinalities(k int) (Cardinalities, error) {
	if err := ValidateArity(k); err != nil {
		return Cardinalities{}, err
	}
	half := k / 2
	return Cardinalities{
		Core:        half * half,
		Aggregation: k * half,
		Edge:        k * half,
		Hosts:       k * half * half,
	}, nil
}

// ExpectedLinks returns the link count of each pass for arity k.
func ExpectedLinks(k int) map[LinkKind]int {
	half := k / 2
	return map[LinkKind]int{
		LinkCoreAgg:  k * half * half,
		LinkAggEdge:  k * half * half,
		LinkEdgeHost: half * k * half,
	}
}

// Topology is a built fat-tree. Nothing may add or remove nodes or links
// after Build returns, so concurrent readers need no locking.
type Topology struct {
	K      int
	Params LinkParams

	Core        []*Node
	Aggregation []*Node
	Edge        []*Node
	Hosts       []*Node
	Links       []*Link

	nodes []*Node         // indexed by Node.ID
	adj   map[int][]*Link // node ID -> incident links in creation order
}

// builder carries the per-build counters.
type builder struct {
	k      int
	half   int
	topo   *Topology
	nextID int
	linkID int
	ports  map[int]int // node ID -> next free port number
}

// Build creates the nodes and links of a k-ary fat-tree. It is a pure
// function of its arguments; a failed call returns no partial topology.
func Build(k int, params LinkParams) (*Topology, error) {
	card, err := ComputeCardinalities(k)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		k:    k,
		half: k / 2,
		topo: &Topology{
			K:      k,
			Params: params,
			nodes:  make([]*Node, 0, card.Total()),
			adj:    make(map[int][]*Link, card.Total()),
		},
		ports: make(map[int]int, card.Total()),
	}

	b.topo.Core = b.createNodes(LayerCore, card.Core)
	b.topo.Aggregation = b.createNodes(LayerAggregation, card.Aggregation)
	b.topo.Edge = b.createNodes(LayerEdge, card.Edge)
	b.topo.Hosts = b.createNodes(LayerHost, card.Hosts)

	b.connectCoreAgg()
	b.connectAggEdge()
	b.connectEdgeHost()

	if err := b.topo.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("build k=%d: %w", k, err)
	}
	return b.topo, nil
}

func (b *builder) createNodes(layer Layer, count int) []*Node {
	nodes := make([]*Node, count)
	for i := 0; i < count; i++ {
		n := &Node{
			ID:    b.nextID,
			Layer: layer,
			Index: i,
			Pod:   b.podOf(layer, i),
		}
		b.nextID++
		nodes[i] = n
		b.topo.nodes = append(b.topo.nodes, n)
	}
	return nodes
}

func (b *builder) podOf(layer Layer, index int) int {
	switch layer {
	case LayerAggregation, LayerEdge:
		return index / b.half
	case LayerHost:
		return index / (b.half * b.half)
	default:
		return -1
	}
}

// nextPort returns the next interface name of a node, eth0 first.
func (b *builder) nextPort(n *Node) string {
	p := b.ports[n.ID]
	b.ports[n.ID] = p + 1
	return fmt.Sprintf("eth%d", p)
}

// addLink connects upper to lower and records the link on both ends.
func (b *builder) addLink(kind LinkKind, upper, lower *Node) {
	l := &Link{
		ID:     b.linkID,
		Kind:   kind,
		A:      Endpoint{Node: upper, Interface: b.nextPort(upper)},
		B:      Endpoint{Node: lower, Interface: b.nextPort(lower)},
		Params: b.topo.Params,
	}
	b.linkID++
	b.topo.Links = append(b.topo.Links, l)
	b.topo.adj[upper.ID] = append(b.topo.adj[upper.ID], l)
	b.topo.adj[lower.ID] = append(b.topo.adj[lower.ID], l)
}

// connectCoreAgg links aggregation switch i of every pod to the i-th group
// of k/2 core switches, so all pods share the same core layer.
func (b *builder) connectCoreAgg() {
	for pod := 0; pod < b.k; pod++ {
		for i := 0; i < b.half; i++ {
			for j := 0; j < b.half; j++ {
				core := b.topo.Core[i*b.half+j]
				agg := b.topo.Aggregation[pod*b.half+i]
				b.addLink(LinkCoreAgg, core, agg)
			}
		}
	}
}

// connectAggEdge fully meshes the aggregation and edge switches of each pod.
func (b *builder) connectAggEdge() {
	for pod := 0; pod < b.k; pod++ {
		for i := 0; i < b.half; i++ {
			for j := 0; j < b.half; j++ {
				agg := b.topo.Aggregation[pod*b.half+i]
				edge := b.topo.Edge[pod*b.half+j]
				b.addLink(LinkAggEdge, agg, edge)
			}
		}
	}
}

// connectEdgeHost gives each edge switch a contiguous block of k/2 hosts.
func (b *builder) connectEdgeHost() {
	for pod := 0; pod < b.k; pod++ {
		for e := pod * b.half; e < (pod+1)*b.half; e++ {
			for i := 0; i < b.half; i++ {
				b.addLink(LinkEdgeHost, b.topo.Edge[e], b.topo.Hosts[e*b.half+i])
			}
		}
	}
}

// Nodes returns every node in ID order: core, aggregation, edge, hosts.
func (t *Topology) Nodes() []*Node {
	return t.nodes
}

// Node returns the node with the given ID.
func (t *Topology) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id], true
}

// NodesIn returns the nodes of one layer.
func (t *Topology) NodesIn(layer Layer) []*Node {
	switch layer {
	case LayerCore:
		return t.Core
	case LayerAggregation:
		return t.Aggregation
	case LayerEdge:
		return t.Edge
	case LayerHost:
		return t.Hosts
	}
	return nil
}

// LinksOf returns the links incident to n in creation order.
func (t *Topology) LinksOf(n *Node) []*Link {
	return t.adj[n.ID]
}

// Degree returns the number of links incident to n.
func (t *Topology) Degree(n *Node) int {
	return len(t.adj[n.ID])
}

// Neighbors returns the nodes adjacent to n, ordered like LinksOf.
func (t *Topology) Neighbors(n *Node) []*Node {
	links := t.adj[n.ID]
	out := make([]*Node, 0, len(links))
	for _, l := range links {
		if peer, ok := l.Peer(n); ok {
			out = append(out, peer.Node)
		}
	}
	return out
}

// LinksBetween returns every link joining a and b.
func (t *Topology) LinksBetween(a, b *Node) []*Link {
	var out []*Link
	for _, l := range t.adj[a.ID] {
		if peer, _ := l.Peer(a); peer.Node == b {
			out = append(out, l)
		}
	}
	return out
}

// LinksByKind counts the links created by each pass.
func (t *Topology) LinksByKind() map[LinkKind]int {
	counts := make(map[LinkKind]int, 3)
	for _, l := range t.Links {
		counts[l.Kind]++
	}
	return counts
}

// Cardinalities returns the actual layer sizes.
func (t *Topology) Cardinalities() Cardinalities {
	return Cardinalities{
		Core:        len(t.Core),
		Aggregation: len(t.Aggregation),
		Edge:        len(t.Edge),
		Hosts:       len(t.Hosts),
	}
}
