package main

import (
	"fmt"
	"net"
	"time"
)

const (
	// FlowPacketSize is the payload size of each sent packet in bytes.
	FlowPacketSize = 1024

	sinkStart   = 1 * time.Second
	sourceStart = 2 * time.Second
	flowStop    = 5 * time.Second
)

// Flow is one TCP sink/source pair for the traffic generator.
type Flow struct {
	ID       int
	Sender   *Node
	Receiver *Node
	SinkAddr net.IP
	Port     int
	Rate     uint64 // bits per second

	SinkStart   time.Duration
	SourceStart time.Duration
	Stop        time.Duration
}

func (f Flow) String() string {
	return fmt.Sprintf("flow%d %s -> %s:%d", f.ID, f.Sender, f.Receiver, f.Port)
}

// PlanFlows pairs hosts for n flows: flow i sends from host i mod H to
// host (H-1-i) mod H, sinking at the receiver's first interface address.
func PlanFlows(ft *FatTree, n int, rate uint64, basePort int) ([]Flow, error) {
	if n < 0 {
		return nil, NewInvalidParameterError("flows", n, "must not be negative")
	}
	hosts := ft.Hosts()
	if n > 0 && len(hosts) == 0 {
		return nil, NewInvalidParameterError("flows", n, "topology has no hosts")
	}

	flows := make([]Flow, 0, n)
	for i := 0; i < n; i++ {
		sender := hosts[i%len(hosts)]
		receiver := hosts[(len(hosts)-1-i%len(hosts))%len(hosts)]
		addr, ok := ft.Addresses().PrimaryAddress(receiver)
		if !ok {
			return nil, fmt.Errorf("flow %d: receiver %s has no address", i, receiver)
		}
		flows = append(flows, Flow{
			ID:          i,
			Sender:      sender,
			Receiver:    receiver,
			SinkAddr:    addr,
			Port:        basePort + i,
			Rate:        rate,
			SinkStart:   sinkStart,
			SourceStart: sourceStart,
			Stop:        flowStop,
		})
	}
	return flows, nil
}
