package main

import (
	"fmt"
	"time"
)

// Layer is the fat-tree tier a node belongs to.
type Layer int

const (
	LayerCore Layer = iota
	LayerAggregation
	LayerEdge
	LayerHost
)

// Layers lists every layer top-down, which is also node creation order.
var Layers = []Layer{LayerCore, LayerAggregation, LayerEdge, LayerHost}

func (l Layer) String() string {
	switch l {
	case LayerCore:
		return "core"
	case LayerAggregation:
		return "agg"
	case LayerEdge:
		return "edge"
	case LayerHost:
		return "host"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Node is a switch or host. ID is unique across the whole topology, Index is
// 0-based within the layer. Pod is -1 for core switches.
type Node struct {
	ID    int
	Layer Layer
	Index int
	Pod   int
}

// Name returns the node name used in generated specs, e.g. "agg3".
func (n *Node) Name() string {
	return fmt.Sprintf("%s%d", n.Layer, n.Index)
}

func (n *Node) String() string {
	return n.Name()
}

// LinkParams are the point-to-point channel attributes applied to every link.
type LinkParams struct {
	DataRate  uint64        // bits per second
	Delay     time.Duration // propagation delay
	QueueSize int           // packets
}

// DefaultLinkParams returns 1Gbps, 10us, 1 packet.
func DefaultLinkParams() LinkParams {
	return LinkParams{
		DataRate:  1_000_000_000,
		Delay:     10 * time.Microsecond,
		QueueSize: 1,
	}
}

// Validate checks the link parameters.
func (p LinkParams) Validate() error {
	if p.DataRate == 0 {
		return NewInvalidParameterError("data rate", p.DataRate, "must be positive")
	}
	if p.Delay < 0 {
		return NewInvalidParameterError("delay", p.Delay, "must not be negative")
	}
	if p.Delay%time.Microsecond != 0 {
		return NewInvalidParameterError("delay", p.Delay, "must be a whole number of microseconds")
	}
	if p.QueueSize < 1 {
		return NewInvalidParameterError("queue size", p.QueueSize, "must hold at least one packet")
	}
	return nil
}

// LinkKind identifies which of the three link passes created a link.
type LinkKind int

const (
	LinkCoreAgg LinkKind = iota
	LinkAggEdge
	LinkEdgeHost
)

func (k LinkKind) String() string {
	switch k {
	case LinkCoreAgg:
		return "core-agg"
	case LinkAggEdge:
		return "agg-edge"
	case LinkEdgeHost:
		return "edge-host"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Endpoint is one side of a link.
type Endpoint struct {
	Node      *Node
	Interface string
}

// Link connects an upper-layer node (A) to a lower-layer node (B). ID is the
// creation sequence number and is the order addresses are allocated in.
type Link struct {
	ID     int
	Kind   LinkKind
	A      Endpoint
	B      Endpoint
	Params LinkParams
}

// Peer returns the endpoint opposite to n, and false if n is not on the link.
func (l *Link) Peer(n *Node) (Endpoint, bool) {
	switch n {
	case l.A.Node:
		return l.B, true
	case l.B.Node:
		return l.A, true
	}
	return Endpoint{}, false
}

// Local returns the endpoint belonging to n.
func (l *Link) Local(n *Node) (Endpoint, bool) {
	switch n {
	case l.A.Node:
		return l.A, true
	case l.B.Node:
		return l.B, true
	}
	return Endpoint{}, false
}

func (l *Link) String() string {
	return fmt.Sprintf("%s#%s-%s#%s", l.A.Node, l.A.Interface, l.B.Node, l.B.Interface)
}
