// Package sink fans detection events out to their consumers: the in-memory
// store, ClickHouse, and live subscribers on NATS.
package sink

import (
	"log"

	"NetSentry/internal/model"
)

// FanOut forwards every event to each registered sink. A failing sink is
// logged and skipped so one slow consumer cannot starve the others.
type FanOut struct {
	sinks []model.EventSink
}

// NewFanOut creates a composite sink.
func NewFanOut(sinks ...model.EventSink) *FanOut {
	return &FanOut{sinks: sinks}
}

// Add appends another sink.
func (f *FanOut) Add(s model.EventSink) {
	f.sinks = append(f.sinks, s)
}

// Emit delivers the event to every sink.
func (f *FanOut) Emit(event *model.DetectionEvent) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Emit(event); err != nil {
			log.Printf("Error delivering event to sink: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
