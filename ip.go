package main

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

// RouterIDs assigns each node a /32 loopback used as its BGP router ID.
type RouterIDs struct {
	network *net.IPNet
}

// NewRouterIDs parses the loopback network.
func NewRouterIDs(loopback string) (*RouterIDs, error) {
	_, network, err := net.ParseCIDR(loopback)
	if err != nil {
		return nil, NewInvalidParameterError("loopback network", loopback, err.Error())
	}
	if network.IP.To4() == nil {
		return nil, NewInvalidParameterError("loopback network", loopback, "router IDs must be IPv4")
	}
	return &RouterIDs{network: network}, nil
}

// Fits reports whether the loopback network has a host number for every
// node ID below n. Host number 0 is the network address and is skipped.
func (r *RouterIDs) Fits(n int) bool {
	return uint64(n)+1 < cidr.AddressCount(r.network)
}

// For returns the router ID of node n: host number ID+1 of the loopback network.
func (r *RouterIDs) For(n *Node) (net.IP, error) {
	ip, err := cidr.Host(r.network, n.ID+1)
	if err != nil {
		return nil, fmt.Errorf("router id for %s: %w", n, err)
	}
	return ip, nil
}

// networksOverlap reports whether a and b share any address.
func networksOverlap(a, b *net.IPNet) bool {
	return a.Contains(b.IP) || b.Contains(a.IP)
}
