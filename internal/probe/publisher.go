// Package probe moves packet events between the capture probe and the
// engine over NATS, encoded as JSON envelopes.
package probe

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"github.com/nats-io/nats.go"

	"NetSentry/internal/capture"
	"NetSentry/internal/model"
)

// packetEnvelope is the wire form of a parsed packet.
type packetEnvelope struct {
	Timestamp  time.Time      `json:"timestamp"`
	SrcIP      string         `json:"src_ip"`
	DstIP      string         `json:"dst_ip"`
	SrcPort    uint16         `json:"src_port"`
	DstPort    uint16         `json:"dst_port"`
	Protocol   uint8          `json:"protocol"`
	Forward    bool           `json:"forward"`
	Size       int            `json:"size"`
	HeaderSize int            `json:"header_size"`
	WindowSize int            `json:"window_size"`
	Flags      model.TCPFlags `json:"flags"`
}

// Publisher publishes parsed packets to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to NATS and returns a publisher for the subject.
func NewPublisher(natsURL, subject string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", natsURL)
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish serializes a parsed packet and publishes it.
func (p *Publisher) Publish(pkt *capture.ParsedPacket) error {
	env := packetEnvelope{
		Timestamp:  pkt.Event.Timestamp,
		SrcIP:      pkt.Tuple.SrcIP.String(),
		DstIP:      pkt.Tuple.DstIP.String(),
		SrcPort:    pkt.Tuple.SrcPort,
		DstPort:    pkt.Tuple.DstPort,
		Protocol:   pkt.Tuple.Protocol,
		Forward:    pkt.Event.Forward,
		Size:       pkt.Event.Size,
		HeaderSize: pkt.Event.HeaderSize,
		WindowSize: pkt.Event.WindowSize,
		Flags:      pkt.Event.Flags,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}

func (e *packetEnvelope) toParsed() *capture.ParsedPacket {
	return &capture.ParsedPacket{
		Tuple: model.FiveTuple{
			SrcIP:    net.ParseIP(e.SrcIP),
			DstIP:    net.ParseIP(e.DstIP),
			SrcPort:  e.SrcPort,
			DstPort:  e.DstPort,
			Protocol: e.Protocol,
		},
		Event: &model.PacketEvent{
			Timestamp:  e.Timestamp,
			Forward:    e.Forward,
			Size:       e.Size,
			HeaderSize: e.HeaderSize,
			WindowSize: e.WindowSize,
			Flags:      e.Flags,
		},
	}
}
