package main

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

const (
	// Host numbers of the two link endpoints inside a link subnet.
	upperHostNum = 1
	lowerHostNum = 2
)

// Assignment is the address block of one link. Local belongs to the upper
// endpoint (Link.A), Peer to the lower one (Link.B).
type Assignment struct {
	Link   *Link
	Subnet *net.IPNet
	Local  net.IP
	Peer   net.IP
}

// InterfaceAddress is an address bound to one node interface.
type InterfaceAddress struct {
	Interface string
	IP        net.IP
	Subnet    *net.IPNet
}

// CIDR formats the address with the subnet prefix length, e.g. 10.0.3.1/24.
func (a InterfaceAddress) CIDR() string {
	ones, _ := a.Subnet.Mask.Size()
	return fmt.Sprintf("%s/%d", a.IP, ones)
}

// AddressTable maps every link to its subnet and endpoint addresses.
// Like the topology it is read-only after Assign returns.
type AddressTable struct {
	assignments []Assignment
	byLink      map[int]int
	byNode      map[int][]InterfaceAddress
}

// All returns the assignments in allocation order.
func (t *AddressTable) All() []Assignment {
	return t.assignments
}

// Len returns the number of assigned links.
func (t *AddressTable) Len() int {
	return len(t.assignments)
}

// Lookup returns the assignment of l.
func (t *AddressTable) Lookup(l *Link) (Assignment, bool) {
	i, ok := t.byLink[l.ID]
	if !ok {
		return Assignment{}, false
	}
	return t.assignments[i], true
}

// Addresses returns the interface addresses of n in port order.
func (t *AddressTable) Addresses(n *Node) []InterfaceAddress {
	return t.byNode[n.ID]
}

// PrimaryAddress returns the address of the first interface of n.
func (t *AddressTable) PrimaryAddress(n *Node) (net.IP, bool) {
	addrs := t.byNode[n.ID]
	if len(addrs) == 0 {
		return nil, false
	}
	return addrs[0].IP, true
}

// AddressAllocator hands out consecutive, non-overlapping link subnets of a
// fixed prefix length from a base network. The cursor only moves forward.
type AddressAllocator struct {
	base      *net.IPNet
	prefixLen int
	newBits   int
	cursor    int
}

// NewAddressAllocator parses base (CIDR notation) and prepares to cut it into
// subnets of prefixLen bits.
func NewAddressAllocator(base string, prefixLen int) (*AddressAllocator, error) {
	_, network, err := net.ParseCIDR(base)
	if err != nil {
		return nil, NewInvalidParameterError("base network", base, err.Error())
	}
	baseLen, bits := network.Mask.Size()
	if prefixLen < baseLen {
		return nil, NewInvalidParameterError("subnet prefix length", prefixLen,
			fmt.Sprintf("shorter than base network /%d", baseLen))
	}
	// network, two endpoints and, for IPv4, broadcast
	if bits-prefixLen < 2 {
		return nil, NewInvalidParameterError("subnet prefix length", prefixLen,
			"leaves no room for two endpoint addresses")
	}
	return &AddressAllocator{
		base:      network,
		prefixLen: prefixLen,
		newBits:   prefixLen - baseLen,
	}, nil
}

// Capacity returns how many subnets the base network holds in total.
func (a *AddressAllocator) Capacity() uint64 {
	if a.newBits >= 63 {
		return 1<<63 - 1
	}
	return 1 << uint(a.newBits)
}

// Remaining returns how many subnets are still unallocated.
func (a *AddressAllocator) Remaining() uint64 {
	return a.Capacity() - uint64(a.cursor)
}

// Assign allocates one subnet per link in the order given. Allocation is
// all-or-nothing: when the remaining space cannot cover every link, nothing
// is allocated and the cursor does not move.
func (a *AddressAllocator) Assign(links []*Link) (*AddressTable, error) {
	if uint64(len(links)) > a.Remaining() {
		return nil, &AddressSpaceExhaustedError{
			Network:   a.base.String(),
			PrefixLen: a.prefixLen,
			Needed:    len(links),
			Available: a.Remaining(),
		}
	}

	table := &AddressTable{
		assignments: make([]Assignment, 0, len(links)),
		byLink:      make(map[int]int, len(links)),
		byNode:      make(map[int][]InterfaceAddress),
	}
	cursor := a.cursor
	for _, l := range links {
		if _, dup := table.byLink[l.ID]; dup {
			return nil, NewInvalidParameterError("link", l.ID, "listed twice")
		}
		subnet, err := cidr.Subnet(a.base, a.newBits, cursor)
		if err != nil {
			return nil, fmt.Errorf("subnet %d of %s: %w", cursor, a.base, err)
		}
		local, err := cidr.Host(subnet, upperHostNum)
		if err != nil {
			return nil, fmt.Errorf("upper address in %s: %w", subnet, err)
		}
		peer, err := cidr.Host(subnet, lowerHostNum)
		if err != nil {
			return nil, fmt.Errorf("lower address in %s: %w", subnet, err)
		}
		cursor++

		table.byLink[l.ID] = len(table.assignments)
		table.assignments = append(table.assignments, Assignment{
			Link:   l,
			Subnet: subnet,
			Local:  local,
			Peer:   peer,
		})
		table.byNode[l.A.Node.ID] = append(table.byNode[l.A.Node.ID],
			InterfaceAddress{Interface: l.A.Interface, IP: local, Subnet: subnet})
		table.byNode[l.B.Node.ID] = append(table.byNode[l.B.Node.ID],
			InterfaceAddress{Interface: l.B.Interface, IP: peer, Subnet: subnet})
	}
	a.cursor = cursor
	return table, nil
}
