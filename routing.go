package main

import (
	"fmt"
)

// Neighbor represents a BGP neighbor over one numbered link.
type Neighbor struct {
	Name      string
	Interface string
	LocalAddr string
	PeerAddr  string
	PeerASN   int
}

// NeighborsOf lists the BGP sessions of n, one per incident link, in port order.
func NeighborsOf(ft *FatTree, n *Node) ([]Neighbor, error) {
	var neighbors []Neighbor
	for _, l := range ft.Topology().LinksOf(n) {
		a, ok := ft.Addresses().Lookup(l)
		if !ok {
			return nil, fmt.Errorf("link %s has no addresses", l)
		}
		local, peer := a.Local, a.Peer
		if n == l.B.Node {
			local, peer = peer, local
		}
		ep, _ := l.Local(n)
		remote, _ := l.Peer(n)
		neighbors = append(neighbors, Neighbor{
			Name:      remote.Node.Name(),
			Interface: ep.Interface,
			LocalAddr: local.String(),
			PeerAddr:  peer.String(),
			PeerASN:   NodeASN(remote.Node),
		})
	}
	return neighbors, nil
}

// BuildRoutingConfigs renders a BIRD config for every node, keyed by node name.
func BuildRoutingConfigs(ft *FatTree, templates *Templates) (map[string]string, error) {
	configs := make(map[string]string, len(ft.Topology().Nodes()))
	for _, n := range ft.Topology().Nodes() {
		neighbors, err := NeighborsOf(ft, n)
		if err != nil {
			return nil, err
		}
		conf, err := templates.Render(n.Layer, TemplateData{
			Name:      n.Name(),
			RouterID:  ft.RouterID(n).String(),
			ASN:       NodeASN(n),
			Neighbors: neighbors,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render template for %s: %w", n, err)
		}
		configs[n.Name()] = conf
	}
	WithStage("routing").Debugf("rendered %d BIRD configs", len(configs))
	return configs, nil
}
