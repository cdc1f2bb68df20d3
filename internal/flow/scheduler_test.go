package flow

import (
	"net"
	"sync"
	"testing"
	"time"

	"NetSentry/internal/model"
)

type stubClassifier struct {
	mu      sync.Mutex
	vectors [][]float64
	verdict model.Verdict
}

func (c *stubClassifier) Classify(vector []float64) (*model.Verdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = append(c.vectors, vector)
	v := c.verdict
	return &v, nil
}

func (c *stubClassifier) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vectors)
}

type stubSink struct {
	mu     sync.Mutex
	events []*model.DetectionEvent
}

func (s *stubSink) Emit(event *model.DetectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestSchedulerClassifiesFlushedFlows(t *testing.T) {
	registry := NewRegistry()
	classifier := &stubClassifier{verdict: model.Verdict{
		IsAttack:         true,
		AttackType:       "DDoS",
		BinaryConfidence: 0.95,
	}}
	sink := &stubSink{}

	sched := NewScheduler(registry, classifier, sink, SchedulerConfig{
		ScanInterval:    20 * time.Millisecond,
		IdleTimeout:     time.Minute,
		FlushMinPackets: 2,
		FlushMaxAge:     time.Minute,
	})

	ft := model.FiveTuple{
		SrcIP:    net.ParseIP("10.0.0.1"),
		DstIP:    net.ParseIP("10.0.0.2"),
		SrcPort:  40000,
		DstPort:  443,
		Protocol: 6,
	}
	now := time.Now()
	registry.Ingest(ft, &model.PacketEvent{Timestamp: now, Forward: true, Size: 100})
	registry.Ingest(ft, &model.PacketEvent{Timestamp: now.Add(time.Millisecond), Forward: false, Size: 200})

	sched.Start()

	deadline := time.After(500 * time.Millisecond)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for the scheduler to classify the flow")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sched.Stop()

	if classifier.calls() != 1 {
		t.Errorf("Classifier called %d times, want 1", classifier.calls())
	}

	sink.mu.Lock()
	event := sink.events[0]
	sink.mu.Unlock()

	if !event.IsAttack || event.AttackType != "DDoS" {
		t.Errorf("Event verdict = %v/%q, want attack DDoS", event.IsAttack, event.AttackType)
	}
	if event.Severity != "high" {
		t.Errorf("Severity = %q, want high for confidence 0.95", event.Severity)
	}
	if event.Protocol != "TCP" {
		t.Errorf("Protocol = %q, want TCP", event.Protocol)
	}
	if event.SrcIP != "10.0.0.1" || event.DstPort != 443 {
		t.Errorf("Event identity mismatch: %s -> :%d", event.SrcIP, event.DstPort)
	}
}

func TestSchedulerStopDrainsRemaining(t *testing.T) {
	registry := NewRegistry()
	classifier := &stubClassifier{verdict: model.Verdict{AttackType: "BENIGN"}}
	sink := &stubSink{}

	// Long intervals so the periodic scan never fires during the test.
	sched := NewScheduler(registry, classifier, sink, SchedulerConfig{
		ScanInterval:    time.Hour,
		IdleTimeout:     time.Hour,
		FlushMinPackets: 1000,
		FlushMaxAge:     time.Hour,
	})
	sched.Start()

	now := time.Now()
	for i := 0; i < 3; i++ {
		ft := model.FiveTuple{
			SrcIP:    net.ParseIP("10.0.0.1"),
			DstIP:    net.ParseIP("10.0.0.2"),
			SrcPort:  uint16(40000 + i),
			DstPort:  443,
			Protocol: 6,
		}
		registry.Ingest(ft, &model.PacketEvent{Timestamp: now, Forward: true, Size: 100})
	}

	sched.Stop()

	if sink.count() != 3 {
		t.Errorf("Final drain emitted %d events, want 3", sink.count())
	}
	if registry.ActiveCount() != 0 {
		t.Errorf("Registry should be empty after Stop, got %d", registry.ActiveCount())
	}
	for _, v := range classifier.vectors {
		if len(v) != 70 {
			t.Errorf("Classifier received a vector of width %d, want 70", len(v))
		}
	}
}
