package store

import (
	"fmt"
	"testing"
	"time"

	"NetSentry/internal/model"
)

func eventN(i int, attack bool, attackType string) *model.DetectionEvent {
	return &model.DetectionEvent{
		Timestamp:  time.Now(),
		SrcIP:      fmt.Sprintf("10.0.0.%d", i%250),
		DstIP:      "192.168.1.1",
		SrcPort:    uint16(1000 + i),
		DstPort:    80,
		Protocol:   "TCP",
		IsAttack:   attack,
		AttackType: attackType,
	}
}

func TestMemoryStoreNewestFirst(t *testing.T) {
	s := NewMemoryStore(10)
	for i := 0; i < 3; i++ {
		s.Emit(eventN(i, false, "BENIGN"))
	}

	events := s.Recent(0)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].SrcPort != 1002 {
		t.Errorf("Newest event should come first, got port %d", events[0].SrcPort)
	}

	limited := s.Recent(2)
	if len(limited) != 2 {
		t.Errorf("Recent(2) returned %d events", len(limited))
	}
}

func TestMemoryStoreCapacity(t *testing.T) {
	s := NewMemoryStore(5)
	for i := 0; i < 8; i++ {
		s.Emit(eventN(i, false, "BENIGN"))
	}

	if s.Len() != 5 {
		t.Fatalf("Store holds %d events, want capacity 5", s.Len())
	}
	// The oldest three were evicted; the newest survives.
	if s.Recent(1)[0].SrcPort != 1007 {
		t.Errorf("Newest event port = %d, want 1007", s.Recent(1)[0].SrcPort)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore(100)
	s.Emit(eventN(0, false, "BENIGN"))
	s.Emit(eventN(1, true, "DDoS"))
	s.Emit(eventN(2, true, "DDoS"))
	s.Emit(eventN(3, true, "PortScan"))

	stats := s.ComputeStats()
	if stats.TotalFlows != 4 || stats.TotalAttacks != 3 {
		t.Errorf("Totals = %d/%d, want 4/3", stats.TotalFlows, stats.TotalAttacks)
	}
	if stats.AttackRatio != 75 {
		t.Errorf("AttackRatio = %v, want 75", stats.AttackRatio)
	}
	if stats.MostFrequentAttack != "DDoS" {
		t.Errorf("MostFrequentAttack = %q, want DDoS", stats.MostFrequentAttack)
	}
	if stats.AttackTypeDistribution["DDoS"] != 2 || stats.AttackTypeDistribution["PortScan"] != 1 {
		t.Errorf("Distribution = %v", stats.AttackTypeDistribution)
	}
}

func TestMemoryStoreEmptyStats(t *testing.T) {
	s := NewMemoryStore(0) // falls back to the default capacity

	stats := s.ComputeStats()
	if stats.TotalFlows != 0 || stats.AttackRatio != 0 {
		t.Errorf("Empty store stats = %+v", stats)
	}
	if stats.MostFrequentAttack != "N/A" {
		t.Errorf("MostFrequentAttack = %q, want N/A", stats.MostFrequentAttack)
	}
}
