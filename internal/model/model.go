package model

import (
	"net"
	"time"
)

// FiveTuple identifies the endpoints of a network flow as observed on the wire.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8 // IANA protocol number, e.g. 6 for TCP, 17 for UDP
}

// TCPFlags is the fixed set of flag bits the accumulator counts.
// Non-TCP packets carry the zero value.
type TCPFlags struct {
	FIN bool
	SYN bool
	RST bool
	PSH bool
	ACK bool
	URG bool
	ECE bool
	CWE bool
}

// PacketEvent holds the per-packet metadata consumed by a flow accumulator.
// Forward is relative to the flow's canonical orientation and is assigned by
// the packet source. Immutable once constructed.
type PacketEvent struct {
	Timestamp  time.Time
	Forward    bool
	Size       int
	HeaderSize int
	Flags      TCPFlags
	WindowSize int
}

// Verdict is the outcome of classifying one completed flow.
type Verdict struct {
	IsAttack           bool
	AttackType         string
	BinaryConfidence   float64
	ClassProbabilities map[string]float64
}

// DetectionEvent is a Verdict joined with the identity of the flow that
// produced it, ready for persistence and fan-out.
type DetectionEvent struct {
	Timestamp          time.Time          `json:"timestamp"`
	SrcIP              string             `json:"src_ip"`
	DstIP              string             `json:"dst_ip"`
	SrcPort            uint16             `json:"src_port"`
	DstPort            uint16             `json:"dst_port"`
	Protocol           string             `json:"protocol"`
	IsAttack           bool               `json:"is_attack"`
	AttackType         string             `json:"attack_type"`
	Severity           string             `json:"severity"`
	BinaryConfidence   float64            `json:"binary_confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities,omitempty"`
}

// EventSink receives detection events drained from the flow registry.
// Implementations own persistence, fan-out, or in-memory retention.
type EventSink interface {
	Emit(event *DetectionEvent) error
}

// SeverityFor buckets a verdict into none/low/medium/high from the binary
// confidence. Consumers of the verdict use it; the pipeline itself does not.
func SeverityFor(v *Verdict) string {
	if !v.IsAttack {
		return "none"
	}
	switch {
	case v.BinaryConfidence > 0.9:
		return "high"
	case v.BinaryConfidence > 0.7:
		return "medium"
	default:
		return "low"
	}
}

// ProtocolName maps a protocol number to the name used in emitted events.
func ProtocolName(proto uint8) string {
	switch proto {
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	case 1:
		return "ICMP"
	default:
		return "Unknown"
	}
}
