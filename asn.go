package main

const (
	// ASN assignments for different layers.
	ASNCore     = 4200000000
	ASNPodBase  = 4200001000
	ASNEdgeBase = 4200010000
	ASNHostBase = 4200100000
)

// NodeASN returns the BGP AS number of a node. All core switches share one
// ASN, the aggregation switches of a pod share the pod's ASN, and every
// edge switch and host has its own. The ranges are disjoint for every k up
// to MaxArity: at most 256 pods, 32768 edge switches and 4194304 hosts.
func NodeASN(n *Node) int {
	switch n.Layer {
	case LayerCore:
		return ASNCore
	case LayerAggregation:
		return ASNPodBase + n.Pod
	case LayerEdge:
		return ASNEdgeBase + n.Index
	default:
		return ASNHostBase + n.Index
	}
}
