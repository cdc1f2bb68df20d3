package flow

import (
	"bytes"
	"fmt"
	"net"

	"NetSentry/internal/model"
)

// endpointLess imposes a total order over (address, port) pairs: addresses
// compare as 16-byte values, ports break ties.
func endpointLess(aIP net.IP, aPort uint16, bIP net.IP, bPort uint16) bool {
	if c := bytes.Compare(aIP.To16(), bIP.To16()); c != 0 {
		return c < 0
	}
	return aPort < bPort
}

// IsForward reports whether a packet with the given tuple travels in the
// flow's canonical forward direction, i.e. its source endpoint is the
// lexicographically smaller side. The heuristic does not track connection
// state; a flow whose first observed packet is not a SYN may be oriented
// backwards, which matches the trained models' input.
func IsForward(ft model.FiveTuple) bool {
	return !endpointLess(ft.DstIP, ft.DstPort, ft.SrcIP, ft.SrcPort)
}

// KeyOf derives the canonical, order-independent identity of the flow the
// tuple belongs to. Swapping source and destination yields the same key.
func KeyOf(ft model.FiveTuple) string {
	srcIP, dstIP := ft.SrcIP, ft.DstIP
	srcPort, dstPort := ft.SrcPort, ft.DstPort
	if endpointLess(dstIP, dstPort, srcIP, srcPort) {
		srcIP, dstIP = dstIP, srcIP
		srcPort, dstPort = dstPort, srcPort
	}
	return fmt.Sprintf("%s:%d-%s:%d-%d", srcIP, srcPort, dstIP, dstPort, ft.Protocol)
}
