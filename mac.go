package main

import (
	"net"
)

// macPrefix is the locally administered OUI-like prefix of generated MACs.
const macPrefix = 0xfa

// EndpointMAC returns the MAC of n's end of link l. Every link owns two
// consecutive identifiers, 2*ID for the upper end and 2*ID+1 for the lower.
func EndpointMAC(l *Link, n *Node) (net.HardwareAddr, bool) {
	id := uint32(l.ID) * 2
	switch n {
	case l.A.Node:
	case l.B.Node:
		id++
	default:
		return nil, false
	}
	return macFromID(id), true
}

// macFromID builds 02:fa:XX:XX:XX:XX with the U/L bit set.
func macFromID(id uint32) net.HardwareAddr {
	return net.HardwareAddr{
		0x02,
		macPrefix,
		byte(id >> 24),
		byte(id >> 16),
		byte(id >> 8),
		byte(id),
	}
}

// LinkLocalAddress converts a MAC to its IPv6 link-local address using
// EUI-64 (RFC 4291 Section 2.5.1).
func LinkLocalAddress(mac net.HardwareAddr) net.IP {
	if len(mac) != 6 {
		return nil
	}

	ip := make(net.IP, net.IPv6len)
	ip[0] = 0xfe
	ip[1] = 0x80
	ip[8] = mac[0] ^ 0x02 // flip U/L bit
	ip[9] = mac[1]
	ip[10] = mac[2]
	ip[11] = 0xff
	ip[12] = 0xfe
	ip[13] = mac[3]
	ip[14] = mac[4]
	ip[15] = mac[5]
	return ip
}
