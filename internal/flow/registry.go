package flow

import (
	"sync"
	"time"

	"NetSentry/internal/model"
)

// Registry is the keyed collection of live flow accumulators. A single
// mutex guards the table and every accumulator it holds; once an eviction
// call removes an accumulator the caller owns it exclusively and may read it
// without further locking.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]*Accumulator
}

// NewRegistry creates an empty flow registry.
func NewRegistry() *Registry {
	return &Registry{
		flows: make(map[string]*Accumulator),
	}
}

// Ingest normalizes the packet's 5-tuple to the canonical flow key, creates
// an accumulator on first sight and folds the event in. Safe for concurrent
// producers.
func (r *Registry) Ingest(ft model.FiveTuple, ev *model.PacketEvent) {
	key := KeyOf(ft)

	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.flows[key]
	if !ok {
		acc = NewAccumulator(ft, ev.Timestamp)
		r.flows[key] = acc
	}
	acc.AddPacket(ev)
}

// ExpireIdle atomically removes and returns every flow whose last packet is
// older than idleTimeout. A removed flow can never be returned twice.
func (r *Registry) ExpireIdle(idleTimeout time.Duration) []*Accumulator {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Accumulator
	for key, acc := range r.flows {
		if now.Sub(acc.LastSeen()) > idleTimeout {
			expired = append(expired, acc)
			delete(r.flows, key)
		}
	}
	return expired
}

// FlushActive atomically removes and returns every flow that has reached
// minPackets total packets or maxAge since its first packet. This is an
// eagerness heuristic so flows surface for classification well before idle
// expiry; it does not wait for protocol termination signals.
func (r *Registry) FlushActive(minPackets int, maxAge time.Duration) []*Accumulator {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var flushed []*Accumulator
	for key, acc := range r.flows {
		if acc.PacketCount() >= uint64(minPackets) || now.Sub(acc.FirstSeen()) >= maxAge {
			flushed = append(flushed, acc)
			delete(r.flows, key)
		}
	}
	return flushed
}

// DrainAll removes and returns every flow currently in the table. Used for
// the final drain at shutdown.
func (r *Registry) DrainAll() []*Accumulator {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := make([]*Accumulator, 0, len(r.flows))
	for key, acc := range r.flows {
		drained = append(drained, acc)
		delete(r.flows, key)
	}
	return drained
}

// ActiveCount returns the point-in-time number of live flows.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}
