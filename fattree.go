package main

import (
	"fmt"
	"net"
)

// FatTree is a built topology together with its address table and router IDs.
// It is immutable and safe for concurrent readers.
type FatTree struct {
	cfg       Config
	topo      *Topology
	addrs     *AddressTable
	routerIDs map[int]net.IP
}

// BuildFatTree validates cfg, builds the topology and assigns addresses.
// Any error is terminal for the build; no partial result is returned.
func BuildFatTree(cfg Config) (*FatTree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	topo, err := Build(cfg.K, cfg.Link)
	if err != nil {
		return nil, err
	}
	card := topo.Cardinalities()
	WithStage("nodes").WithField("k", cfg.K).Infof("created %d core, %d aggregation, %d edge, %d host nodes",
		card.Core, card.Aggregation, card.Edge, card.Hosts)
	byKind := topo.LinksByKind()
	WithStage("links").WithField("links", len(topo.Links)).Infof("created %d core-agg, %d agg-edge, %d edge-host links",
		byKind[LinkCoreAgg], byKind[LinkAggEdge], byKind[LinkEdgeHost])

	alloc, err := NewAddressAllocator(cfg.BaseNetwork, cfg.SubnetPrefixLen)
	if err != nil {
		return nil, err
	}
	addrs, err := alloc.Assign(topo.Links)
	if err != nil {
		return nil, fmt.Errorf("assign addresses: %w", err)
	}
	WithStage("addresses").WithField("subnets", addrs.Len()).Infof("allocated /%d link subnets from %s, %d left",
		cfg.SubnetPrefixLen, cfg.BaseNetwork, alloc.Remaining())

	rids, err := NewRouterIDs(cfg.LoopbackNetwork)
	if err != nil {
		return nil, err
	}
	ids := make(map[int]net.IP, len(topo.Nodes()))
	for _, n := range topo.Nodes() {
		ip, err := rids.For(n)
		if err != nil {
			return nil, err
		}
		ids[n.ID] = ip
	}

	return &FatTree{cfg: cfg, topo: topo, addrs: addrs, routerIDs: ids}, nil
}

// Config returns the configuration the fat-tree was built from.
func (f *FatTree) Config() Config { return f.cfg }

// Topology returns the node and link sets.
func (f *FatTree) Topology() *Topology { return f.topo }

// Core returns the core switches.
func (f *FatTree) Core() []*Node { return f.topo.Core }

// Aggregation returns the aggregation switches.
func (f *FatTree) Aggregation() []*Node { return f.topo.Aggregation }

// Edge returns the edge switches.
func (f *FatTree) Edge() []*Node { return f.topo.Edge }

// Hosts returns the hosts.
func (f *FatTree) Hosts() []*Node { return f.topo.Hosts }

// Links returns every link in creation order.
func (f *FatTree) Links() []*Link { return f.topo.Links }

// Addresses returns the link address table.
func (f *FatTree) Addresses() *AddressTable { return f.addrs }

// RouterID returns the loopback address of n.
func (f *FatTree) RouterID(n *Node) net.IP { return f.routerIDs[n.ID] }

// Layout projects the topology for rendering. Failures are logged and
// reported as a nil map; they never affect the built fat-tree.
func (f *FatTree) Layout(opts LayoutOptions) map[int]Placement {
	placements, err := Project(f.topo, opts)
	if err != nil {
		WithStage("layout").Warnf("skipping layout: %v", err)
		return nil
	}
	return placements
}

// ExportAnimation writes the NetAnim trace to path. Rendering is best-effort:
// errors are logged and returned for reporting only.
func (f *FatTree) ExportAnimation(path string, opts LayoutOptions) error {
	placements := f.Layout(opts)
	if placements == nil {
		return &LayoutError{Reason: "no layout to export"}
	}
	if err := writeAnimationFile(path, f.topo, placements); err != nil {
		WithStage("animation").WithField("path", path).Warnf("animation export failed: %v", err)
		return err
	}
	WithStage("animation").WithField("path", path).Info("wrote animation")
	return nil
}
