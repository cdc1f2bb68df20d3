package capture

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

const (
	snapshotLen int32 = 1600
	promiscuous       = true
)

// PacketHandler receives every successfully parsed packet.
type PacketHandler func(pkt *ParsedPacket)

// Sniffer captures packets from a live interface and hands parsed packets to
// a handler. It can be started and stopped repeatedly over its lifetime.
type Sniffer struct {
	iface   string
	handler PacketHandler

	mu      sync.Mutex
	handle  *pcap.Handle
	running bool
	wg      sync.WaitGroup

	captured  atomic.Uint64
	processed atomic.Uint64
	lastError atomic.Value // string
}

// SnifferStats is a point-in-time snapshot of capture counters.
type SnifferStats struct {
	Running   bool   `json:"running"`
	Interface string `json:"interface"`
	Captured  uint64 `json:"packet_count"`
	Processed uint64 `json:"processed_count"`
	LastError string `json:"last_error,omitempty"`
}

// NewSniffer creates a sniffer for the given interface. The capture handle
// is opened on Start, not here, so construction never requires privileges.
func NewSniffer(iface string, handler PacketHandler) *Sniffer {
	return &Sniffer{iface: iface, handler: handler}
}

// Start opens the interface and begins the capture loop.
func (s *Sniffer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	handle, err := pcap.OpenLive(s.iface, snapshotLen, promiscuous, pcap.BlockForever)
	if err != nil {
		s.lastError.Store(err.Error())
		return fmt.Errorf("failed to open interface %s: %w", s.iface, err)
	}
	s.handle = handle
	s.running = true

	s.wg.Add(1)
	go s.loop(handle)
	log.Printf("Sniffer started on interface %s", s.iface)
	return nil
}

// Stop closes the capture handle and waits for the loop to exit.
func (s *Sniffer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.handle.Close()
	s.handle = nil
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("Sniffer stopped on interface %s", s.iface)
}

// Running reports whether the capture loop is active.
func (s *Sniffer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns the sniffer's counters.
func (s *Sniffer) Stats() SnifferStats {
	lastErr, _ := s.lastError.Load().(string)
	return SnifferStats{
		Running:   s.Running(),
		Interface: s.iface,
		Captured:  s.captured.Load(),
		Processed: s.processed.Load(),
		LastError: lastErr,
	}
}

func (s *Sniffer) loop(handle *pcap.Handle) {
	defer s.wg.Done()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		s.captured.Add(1)
		pkt, err := ParsePacket(packet)
		if err != nil {
			continue // non-IP traffic is expected on most links
		}
		s.handler(pkt)
		s.processed.Add(1)
	}
}
