// Package capture turns raw packets into the normalized packet events the
// flow registry consumes, from a live interface or a pcap file.
package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"NetSentry/internal/flow"
	"NetSentry/internal/model"
)

// ParsedPacket is a packet event paired with its originating 5-tuple.
type ParsedPacket struct {
	Tuple model.FiveTuple
	Event *model.PacketEvent
}

// ParsePacket decodes a captured packet down to the transport layer and
// extracts everything the accumulator needs: 5-tuple, sizes, TCP flags,
// window, and the canonical direction label. Non-IPv4 and non-TCP/UDP/ICMP
// packets are rejected with an error and skipped by callers.
func ParsePacket(packet gopacket.Packet) (*ParsedPacket, error) {
	ts := time.Now()
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		ts = meta.Timestamp
	}

	l := packet.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return nil, fmt.Errorf("not an IPv4 packet")
	}
	ipLayer := l.(*layers.IPv4)

	ft := model.FiveTuple{
		SrcIP:    ipLayer.SrcIP,
		DstIP:    ipLayer.DstIP,
		Protocol: uint8(ipLayer.Protocol),
	}

	ev := &model.PacketEvent{
		Timestamp:  ts,
		Size:       len(packet.Data()),
		HeaderSize: int(ipLayer.IHL) * 4,
	}

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		ft.SrcPort = uint16(tcp.SrcPort)
		ft.DstPort = uint16(tcp.DstPort)
		ev.HeaderSize += int(tcp.DataOffset) * 4
		ev.WindowSize = int(tcp.Window)
		ev.Flags = model.TCPFlags{
			FIN: tcp.FIN,
			SYN: tcp.SYN,
			RST: tcp.RST,
			PSH: tcp.PSH,
			ACK: tcp.ACK,
			URG: tcp.URG,
			ECE: tcp.ECE,
			CWE: tcp.CWR,
		}
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		ft.SrcPort = uint16(udp.SrcPort)
		ft.DstPort = uint16(udp.DstPort)
		ev.HeaderSize += 8
	case packet.Layer(layers.LayerTypeICMPv4) != nil:
		// Ports stay zero; the flow key degenerates to the address pair.
	default:
		return nil, fmt.Errorf("not a TCP, UDP or ICMP packet")
	}

	ev.Forward = flow.IsForward(ft)

	return &ParsedPacket{Tuple: ft, Event: ev}, nil
}
