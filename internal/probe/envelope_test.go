package probe

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"NetSentry/internal/capture"
	"NetSentry/internal/flow"
	"NetSentry/internal/model"
)

func TestPacketEnvelopeRoundTrip(t *testing.T) {
	original := &capture.ParsedPacket{
		Tuple: model.FiveTuple{
			SrcIP:    net.ParseIP("192.168.0.1"),
			DstIP:    net.ParseIP("8.8.8.8"),
			SrcPort:  12345,
			DstPort:  53,
			Protocol: 17,
		},
		Event: &model.PacketEvent{
			Timestamp:  time.Now().UTC().Truncate(time.Microsecond),
			Forward:    true,
			Size:       120,
			HeaderSize: 28,
			WindowSize: 0,
		},
	}

	env := packetEnvelope{
		Timestamp:  original.Event.Timestamp,
		SrcIP:      original.Tuple.SrcIP.String(),
		DstIP:      original.Tuple.DstIP.String(),
		SrcPort:    original.Tuple.SrcPort,
		DstPort:    original.Tuple.DstPort,
		Protocol:   original.Tuple.Protocol,
		Forward:    original.Event.Forward,
		Size:       original.Event.Size,
		HeaderSize: original.Event.HeaderSize,
		WindowSize: original.Event.WindowSize,
		Flags:      original.Event.Flags,
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded packetEnvelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	parsed := decoded.toParsed()
	if !parsed.Tuple.SrcIP.Equal(original.Tuple.SrcIP) || parsed.Tuple.DstPort != 53 {
		t.Errorf("Tuple mismatch after round trip: %+v", parsed.Tuple)
	}
	if parsed.Event.Size != 120 || parsed.Event.HeaderSize != 28 {
		t.Errorf("Event sizes mismatch: %+v", parsed.Event)
	}
	if !parsed.Event.Timestamp.Equal(original.Event.Timestamp) {
		t.Errorf("Timestamp mismatch: %v vs %v", parsed.Event.Timestamp, original.Event.Timestamp)
	}

	// The decoded packet must land in the same flow as the original.
	if flow.KeyOf(parsed.Tuple) != flow.KeyOf(original.Tuple) {
		t.Errorf("Flow key changed across the wire: %q vs %q",
			flow.KeyOf(parsed.Tuple), flow.KeyOf(original.Tuple))
	}
}
