// Package store retains detection events for querying: an in-memory ring
// buffer serving the API, and a ClickHouse writer for durable history.
package store

import (
	"sync"

	"NetSentry/internal/model"
)

const defaultCapacity = 2000

// MemoryStore is a bounded in-memory event store, newest first. It
// implements model.EventSink and backs the history and stats endpoints.
type MemoryStore struct {
	mu       sync.RWMutex
	events   []*model.DetectionEvent
	capacity int
}

// Stats summarizes the stored events.
type Stats struct {
	TotalFlows             int            `json:"total_flows"`
	TotalAttacks           int            `json:"total_attacks"`
	AttackRatio            float64        `json:"attack_ratio"`
	MostFrequentAttack     string         `json:"most_frequent_attack"`
	AttackTypeDistribution map[string]int `json:"attack_type_distribution"`
}

// NewMemoryStore creates a store bounded at capacity events; non-positive
// capacity falls back to the default of 2000.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Emit records an event, evicting the oldest once the capacity is reached.
func (s *MemoryStore) Emit(event *model.DetectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append([]*model.DetectionEvent{event}, s.events...)
	if len(s.events) > s.capacity {
		s.events = s.events[:s.capacity]
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *MemoryStore) Recent(limit int) []*model.DetectionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]*model.DetectionEvent, limit)
	copy(out, s.events[:limit])
	return out
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// ComputeStats aggregates the stored events.
func (s *MemoryStore) ComputeStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalFlows:             len(s.events),
		MostFrequentAttack:     "N/A",
		AttackTypeDistribution: make(map[string]int),
	}

	for _, e := range s.events {
		if !e.IsAttack {
			continue
		}
		stats.TotalAttacks++
		stats.AttackTypeDistribution[e.AttackType]++
	}

	if stats.TotalFlows > 0 {
		stats.AttackRatio = float64(stats.TotalAttacks) / float64(stats.TotalFlows) * 100
	}

	best := 0
	for attackType, count := range stats.AttackTypeDistribution {
		if count > best {
			best = count
			stats.MostFrequentAttack = attackType
		}
	}
	return stats
}
