package flow

import (
	"log"
	"sync"
	"time"

	"NetSentry/internal/metrics"
	"NetSentry/internal/model"
	"NetSentry/internal/schema"
)

// Classifier turns an assembled feature vector into a verdict. Implemented
// by the classification pipeline; stubbed in tests.
type Classifier interface {
	Classify(vector []float64) (*model.Verdict, error)
}

// SchedulerConfig holds the timing knobs of the flow lifecycle scheduler.
type SchedulerConfig struct {
	ScanInterval    time.Duration
	IdleTimeout     time.Duration
	FlushMinPackets int
	FlushMaxAge     time.Duration
}

// Scheduler periodically drains completed flows from the registry and routes
// each through the classifier to the event sink. Eviction happens under the
// registry's lock; classification and emission happen after the batch is
// captured, so the ingest path never blocks on the pipeline or on I/O.
type Scheduler struct {
	registry   *Registry
	classifier Classifier
	sink       model.EventSink
	cfg        SchedulerConfig

	done chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler over the given registry, classifier and
// sink.
func NewScheduler(registry *Registry, classifier Classifier, sink model.EventSink, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		registry:   registry,
		classifier: classifier,
		sink:       sink,
		cfg:        cfg,
		done:       make(chan struct{}),
	}
}

// Start launches the periodic scan loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Flow scheduler started: scan every %s, idle timeout %s, flush at %d packets or %s age",
		s.cfg.ScanInterval, s.cfg.IdleTimeout, s.cfg.FlushMinPackets, s.cfg.FlushMaxAge)
}

// Stop signals the loop to exit and waits for the in-flight batch to finish,
// then drains and classifies every remaining flow so nothing already
// detached is dropped.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()

	remaining := s.registry.DrainAll()
	if len(remaining) > 0 {
		log.Printf("Final drain: classifying %d remaining flows", len(remaining))
		s.processBatch(remaining)
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scan()
		case <-s.done:
			return
		}
	}
}

// scan captures one eviction batch and processes it outside the registry's
// exclusion domain.
func (s *Scheduler) scan() {
	expired := s.registry.ExpireIdle(s.cfg.IdleTimeout)
	flushed := s.registry.FlushActive(s.cfg.FlushMinPackets, s.cfg.FlushMaxAge)
	metrics.ActiveFlows.Set(float64(s.registry.ActiveCount()))

	if len(expired) > 0 {
		log.Printf("Processing %d expired flows", len(expired))
		s.processBatch(expired)
	}
	if len(flushed) > 0 {
		log.Printf("Flushing %d active flows", len(flushed))
		s.processBatch(flushed)
	}
}

func (s *Scheduler) processBatch(batch []*Accumulator) {
	for _, acc := range batch {
		s.process(acc)
	}
}

func (s *Scheduler) process(acc *Accumulator) {
	vector, missing := schema.VectorFromMap(acc.Features())
	if len(missing) > 0 {
		log.Printf("Warning: flow %s missing features %v, substituting zeros", KeyOf(acc.Tuple), missing)
	}

	start := time.Now()
	verdict, err := s.classifier.Classify(vector)
	metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("Error classifying flow %s: %v", KeyOf(acc.Tuple), err)
		return
	}

	severity := model.SeverityFor(verdict)
	metrics.FlowsClassified.WithLabelValues(severity).Inc()

	event := &model.DetectionEvent{
		Timestamp:          time.Now().UTC(),
		SrcIP:              acc.Tuple.SrcIP.String(),
		DstIP:              acc.Tuple.DstIP.String(),
		SrcPort:            acc.Tuple.SrcPort,
		DstPort:            acc.Tuple.DstPort,
		Protocol:           model.ProtocolName(acc.Tuple.Protocol),
		IsAttack:           verdict.IsAttack,
		AttackType:         verdict.AttackType,
		Severity:           severity,
		BinaryConfidence:   verdict.BinaryConfidence,
		ClassProbabilities: verdict.ClassProbabilities,
	}

	if err := s.sink.Emit(event); err != nil {
		metrics.SinkErrors.Inc()
		log.Printf("Error emitting detection event: %v", err)
	}
}
