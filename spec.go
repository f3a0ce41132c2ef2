package main

import (
	"fmt"
	"time"
)

// ContainerImage is the Docker image used for all nodes.
const ContainerImage = "ghcr.io/zinrai/docker-debian-bird2:debian-trixie"

// Spec represents the tinet specification.
type Spec struct {
	Nodes       []SpecNode   `yaml:"nodes"`
	NodeConfigs []NodeConfig `yaml:"node_configs"`
	Test        []Test       `yaml:"test,omitempty"`
}

// SpecNode represents a network node.
type SpecNode struct {
	Name       string      `yaml:"name"`
	Image      string      `yaml:"image"`
	Interfaces []Interface `yaml:"interfaces"`
}

// Interface represents a network interface.
type Interface struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Args string `yaml:"args"`
}

// NodeConfig represents the configuration commands for a node.
type NodeConfig struct {
	Name string    `yaml:"name"`
	Cmds []Command `yaml:"cmds"`
}

// Test is a named list of host-side commands run by `tinet test`.
type Test struct {
	Name string    `yaml:"name"`
	Cmds []Command `yaml:"cmds"`
}

// Command represents a shell command.
type Command struct {
	Cmd string `yaml:"cmd"`
}

// GenerateSpec converts a built fat-tree into a tinet specification. Each
// link is declared once from its upper end; tinet creates the reverse side.
// When routing is true every node starts BIRD from /tinet/<name>.conf.
func GenerateSpec(ft *FatTree, flows []Flow, routing bool) (Spec, error) {
	topo := ft.Topology()
	var spec Spec

	for _, n := range topo.Nodes() {
		node := SpecNode{Name: n.Name(), Image: ContainerImage, Interfaces: []Interface{}}
		cmds := []Command{
			{Cmd: fmt.Sprintf("ip addr add %s/32 dev lo", ft.RouterID(n))},
		}

		addrs := ft.Addresses().Addresses(n)
		links := topo.LinksOf(n)
		if len(addrs) != len(links) {
			return Spec{}, fmt.Errorf("%s has %d links but %d addresses", n, len(links), len(addrs))
		}
		for i, l := range links {
			ep, _ := l.Local(n)
			if n == l.A.Node {
				node.Interfaces = append(node.Interfaces, Interface{
					Name: ep.Interface,
					Type: "direct",
					Args: fmt.Sprintf("%s#%s", l.B.Node.Name(), l.B.Interface),
				})
			}
			mac, _ := EndpointMAC(l, n)
			cmds = append(cmds,
				Command{Cmd: fmt.Sprintf("ip link set dev %s address %s", ep.Interface, mac)},
				Command{Cmd: fmt.Sprintf("ip addr add %s dev %s", addrs[i].CIDR(), ep.Interface)},
				Command{Cmd: fmt.Sprintf("ip -6 addr add %s/64 dev %s", LinkLocalAddress(mac), ep.Interface)},
				Command{Cmd: netemCommand(ep.Interface, l.Params)},
			)
		}

		if n.Layer != LayerHost {
			cmds = append(cmds, Command{Cmd: "sysctl -w net.ipv4.ip_forward=1"})
		}
		if routing {
			cmds = append(cmds,
				Command{Cmd: fmt.Sprintf("cp /tinet/%s.conf /etc/bird/bird.conf", n.Name())},
				Command{Cmd: "mkdir -p /run/bird"},
				Command{Cmd: "bird -c /etc/bird/bird.conf"},
			)
		}

		spec.Nodes = append(spec.Nodes, node)
		spec.NodeConfigs = append(spec.NodeConfigs, NodeConfig{Name: n.Name(), Cmds: cmds})
	}

	if len(flows) > 0 {
		spec.Test = append(spec.Test, flowTest(flows))
	}
	return spec, nil
}

// netemCommand shapes an interface to the link's rate, delay and queue limit.
func netemCommand(iface string, p LinkParams) string {
	return fmt.Sprintf("tc qdisc replace dev %s root netem rate %dbit delay %dus limit %d",
		iface, p.DataRate, p.Delay.Microseconds(), p.QueueSize)
}

// flowTest starts an iperf3 sink per flow, waits until the sources are due,
// then runs each source for the rest of the flow window.
func flowTest(flows []Flow) Test {
	t := Test{Name: "flows"}
	for _, f := range flows {
		t.Cmds = append(t.Cmds, Command{
			Cmd: fmt.Sprintf("docker exec %s iperf3 -s -D -1 -p %d", f.Receiver.Name(), f.Port),
		})
	}
	wait := flows[0].SourceStart - flows[0].SinkStart
	t.Cmds = append(t.Cmds, Command{Cmd: fmt.Sprintf("sleep %d", int(wait/time.Second))})
	for _, f := range flows {
		t.Cmds = append(t.Cmds, Command{
			Cmd: fmt.Sprintf("docker exec %s iperf3 -c %s -p %d -b %d -l %d -t %d",
				f.Sender.Name(), f.SinkAddr, f.Port, f.Rate, FlowPacketSize, int((f.Stop-f.SourceStart)/time.Second)),
		})
	}
	return t
}
