// Package pcap reads packets from capture files for offline analysis.
package pcap

import (
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"NetSentry/internal/capture"
)

// Reader reads packets from a pcap file.
type Reader struct {
	handle *pcap.Handle
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadPackets parses every packet in the file and hands it to fn.
// Unsupported packet types are logged and skipped.
func (r *Reader) ReadPackets(fn capture.PacketHandler) {
	source := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range source.Packets() {
		parsed, err := capture.ParsePacket(packet)
		if err != nil {
			// Unsupported layer stacks are expected in real traces.
			log.Printf("Skipping packet: %v", err)
			continue
		}
		fn(parsed)
	}
}
