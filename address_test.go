package main

import (
	"net"
	"testing"

	"github.com/apparentlymart/go-cidr/cidr"
	"github.com/onsi/gomega"
)

func ipNet(network string) *net.IPNet {
	_, ipNet, err := net.ParseCIDR(network)
	gomega.Expect(err).To(gomega.BeNil())
	return ipNet
}

func TestAddressAllocator(t *testing.T) {
	gomega.RegisterTestingT(t)

	t.Run("testSequentialSubnets", testSequentialSubnets)
	t.Run("testEndpointsShareSubnet", testEndpointsShareSubnet)
	t.Run("testNoOverlap", testNoOverlap)
	t.Run("testNodeAddresses", testNodeAddresses)
	t.Run("testExhaustion", testExhaustion)
	t.Run("testCursorMonotonic", testCursorMonotonic)
	t.Run("testInvalidAllocator", testInvalidAllocator)
	t.Run("testDuplicateLink", testDuplicateLink)
}

func testSequentialSubnets(t *testing.T) {
	topo, err := Build(4, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	alloc, err := NewAddressAllocator("10.0.0.0/8", 24)
	gomega.Expect(err).To(gomega.BeNil())
	table, err := alloc.Assign(topo.Links)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(table.Len()).To(gomega.Equal(48))

	all := table.All()
	gomega.Expect(all[0].Subnet.String()).To(gomega.Equal("10.0.0.0/24"))
	gomega.Expect(all[0].Local.String()).To(gomega.Equal("10.0.0.1"))
	gomega.Expect(all[0].Peer.String()).To(gomega.Equal("10.0.0.2"))
	gomega.Expect(all[1].Subnet.String()).To(gomega.Equal("10.0.1.0/24"))
	gomega.Expect(all[47].Subnet.String()).To(gomega.Equal("10.0.47.0/24"))

	for i, a := range all {
		gomega.Expect(a.Link).To(gomega.BeIdenticalTo(topo.Links[i]))
		got, ok := table.Lookup(topo.Links[i])
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(got.Subnet.String()).To(gomega.Equal(a.Subnet.String()))
	}
	gomega.Expect(alloc.Remaining()).To(gomega.Equal(uint64(1<<16 - 48)))
}

func testEndpointsShareSubnet(t *testing.T) {
	topo, err := Build(6, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	alloc, err := NewAddressAllocator("10.0.0.0/16", 30)
	gomega.Expect(err).To(gomega.BeNil())
	table, err := alloc.Assign(topo.Links)
	gomega.Expect(err).To(gomega.BeNil())

	for _, a := range table.All() {
		gomega.Expect(a.Subnet.Contains(a.Local)).To(gomega.BeTrue())
		gomega.Expect(a.Subnet.Contains(a.Peer)).To(gomega.BeTrue())
		gomega.Expect(a.Local.Equal(a.Peer)).To(gomega.BeFalse())
		ones, _ := a.Subnet.Mask.Size()
		gomega.Expect(ones).To(gomega.Equal(30))
	}
}

func testNoOverlap(t *testing.T) {
	topo, err := Build(8, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	base := "10.0.0.0/8"
	alloc, err := NewAddressAllocator(base, 24)
	gomega.Expect(err).To(gomega.BeNil())
	table, err := alloc.Assign(topo.Links)
	gomega.Expect(err).To(gomega.BeNil())

	subnets := make([]*net.IPNet, 0, table.Len())
	seen := make(map[string]bool)
	for _, a := range table.All() {
		subnets = append(subnets, a.Subnet)
		gomega.Expect(seen[a.Subnet.String()]).To(gomega.BeFalse())
		seen[a.Subnet.String()] = true
	}
	gomega.Expect(cidr.VerifyNoOverlap(subnets, ipNet(base))).To(gomega.Succeed())
}

func testNodeAddresses(t *testing.T) {
	topo, err := Build(4, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())
	alloc, err := NewAddressAllocator("10.0.0.0/8", 24)
	gomega.Expect(err).To(gomega.BeNil())
	table, err := alloc.Assign(topo.Links)
	gomega.Expect(err).To(gomega.BeNil())

	// agg0: eth0/eth1 toward core (lower end), eth2/eth3 toward edge (upper end)
	addrs := table.Addresses(topo.Aggregation[0])
	gomega.Expect(addrs).To(gomega.HaveLen(4))
	gomega.Expect(addrs[0].Interface).To(gomega.Equal("eth0"))
	gomega.Expect(addrs[0].CIDR()).To(gomega.Equal("10.0.0.2/24"))
	gomega.Expect(addrs[1].CIDR()).To(gomega.Equal("10.0.1.2/24"))
	gomega.Expect(addrs[2].CIDR()).To(gomega.Equal("10.0.16.1/24"))
	gomega.Expect(addrs[3].Interface).To(gomega.Equal("eth3"))

	ip, ok := table.PrimaryAddress(topo.Hosts[0])
	gomega.Expect(ok).To(gomega.BeTrue())
	gomega.Expect(ip.String()).To(gomega.Equal("10.0.32.2"))
}

func testExhaustion(t *testing.T) {
	topo, err := Build(4, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	// a /26 holds sixteen /30 subnets, the k=4 tree needs 48
	alloc, err := NewAddressAllocator("192.168.0.0/26", 30)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(alloc.Capacity()).To(gomega.Equal(uint64(16)))

	table, err := alloc.Assign(topo.Links)
	gomega.Expect(table).To(gomega.BeNil())
	gomega.Expect(err).To(gomega.MatchError(ErrAddressSpaceExhausted))
	exhausted, ok := err.(*AddressSpaceExhaustedError)
	gomega.Expect(ok).To(gomega.BeTrue())
	gomega.Expect(exhausted.Needed).To(gomega.Equal(48))
	gomega.Expect(exhausted.Available).To(gomega.Equal(uint64(16)))

	// nothing was consumed by the failed call
	gomega.Expect(alloc.Remaining()).To(gomega.Equal(uint64(16)))
	table, err = alloc.Assign(topo.Links[:16])
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(table.All()[15].Subnet.String()).To(gomega.Equal("192.168.0.60/30"))
	gomega.Expect(alloc.Remaining()).To(gomega.BeZero())

	_, err = alloc.Assign(topo.Links[16:17])
	gomega.Expect(err).To(gomega.MatchError(ErrAddressSpaceExhausted))
}

func testCursorMonotonic(t *testing.T) {
	topo, err := Build(2, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	alloc, err := NewAddressAllocator("10.1.0.0/16", 24)
	gomega.Expect(err).To(gomega.BeNil())
	first, err := alloc.Assign(topo.Links[:3])
	gomega.Expect(err).To(gomega.BeNil())
	second, err := alloc.Assign(topo.Links[3:])
	gomega.Expect(err).To(gomega.BeNil())

	gomega.Expect(first.All()[2].Subnet.String()).To(gomega.Equal("10.1.2.0/24"))
	gomega.Expect(second.All()[0].Subnet.String()).To(gomega.Equal("10.1.3.0/24"))
}

func testInvalidAllocator(t *testing.T) {
	for _, tt := range []struct {
		base      string
		prefixLen int
	}{
		{"10.0.0.0", 24},
		{"not-a-network/8", 24},
		{"10.0.0.0/16", 8},
		{"10.0.0.0/16", 31},
		{"10.0.0.0/16", 32},
		{"fd00::/64", 127},
	} {
		_, err := NewAddressAllocator(tt.base, tt.prefixLen)
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidParameter), "%s /%d", tt.base, tt.prefixLen)
	}

	alloc, err := NewAddressAllocator("fd00::/48", 64)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(alloc.Capacity()).To(gomega.Equal(uint64(1 << 16)))
}

func testDuplicateLink(t *testing.T) {
	topo, err := Build(2, DefaultLinkParams())
	gomega.Expect(err).To(gomega.BeNil())

	alloc, err := NewAddressAllocator("10.0.0.0/16", 24)
	gomega.Expect(err).To(gomega.BeNil())
	_, err = alloc.Assign([]*Link{topo.Links[0], topo.Links[1], topo.Links[0]})
	gomega.Expect(err).To(gomega.MatchError(ErrInvalidParameter))
	gomega.Expect(alloc.Remaining()).To(gomega.Equal(uint64(256)))
}
