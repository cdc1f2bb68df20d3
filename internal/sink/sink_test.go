package sink

import (
	"errors"
	"testing"

	"NetSentry/internal/model"
)

type recordingSink struct {
	events []*model.DetectionEvent
	err    error
}

func (s *recordingSink) Emit(event *model.DetectionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	f := NewFanOut(a)
	f.Add(b)

	if err := f.Emit(&model.DetectionEvent{AttackType: "DDoS"}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("Delivery counts = %d/%d, want 1/1", len(a.events), len(b.events))
	}
}

func TestFanOutContinuesPastFailingSink(t *testing.T) {
	failing := &recordingSink{err: errors.New("sink down")}
	healthy := &recordingSink{}
	f := NewFanOut(failing, healthy)

	err := f.Emit(&model.DetectionEvent{AttackType: "DDoS"})
	if err == nil {
		t.Error("Emit should surface the first sink error")
	}
	if len(healthy.events) != 1 {
		t.Errorf("Healthy sink received %d events, want 1", len(healthy.events))
	}
}
