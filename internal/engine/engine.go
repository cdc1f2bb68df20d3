// Package engine wires the detection core together: packet intake, flow
// registry, lifecycle scheduler, classification pipeline and event sinks.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"NetSentry/internal/capture"
	"NetSentry/internal/config"
	"NetSentry/internal/flow"
	"NetSentry/internal/metrics"
	"NetSentry/internal/model"
	"NetSentry/internal/pipeline"
	"NetSentry/internal/sink"
	"NetSentry/internal/store"
)

// Engine owns the single flow registry instance and the worker pool feeding
// it. Packet producers push into Ingest; the scheduler drains completed
// flows into the pipeline and the sinks.
type Engine struct {
	cfg *config.EngineConfig

	registry  *flow.Registry
	pipeline  *pipeline.Pipeline
	scheduler *flow.Scheduler
	memStore  *store.MemoryStore

	chSink   *store.ClickHouseSink
	natsSink *sink.NATSPublisher

	packetChannel chan *capture.ParsedPacket
	numWorkers    int
	workerWg      sync.WaitGroup
}

// New builds an engine from configuration. Model artifacts are loaded here;
// any failure is returned so the caller can refuse to start accepting
// packets.
func New(cfg *config.EngineConfig) (*Engine, error) {
	pipe, err := pipeline.Load(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load model artifacts: %w", err)
	}
	log.Printf("Model artifacts loaded from %s", cfg.ModelDir)

	memStore := store.NewMemoryStore(cfg.Store.Capacity)
	sinks := sink.NewFanOut(memStore)

	e := &Engine{
		cfg:           cfg,
		registry:      flow.NewRegistry(),
		pipeline:      pipe,
		memStore:      memStore,
		packetChannel: make(chan *capture.ParsedPacket, channelSize(cfg)),
		numWorkers:    workerCount(cfg),
	}

	if cfg.ClickHouse.Enabled {
		chSink, err := store.NewClickHouseSink(cfg.ClickHouse)
		if err != nil {
			return nil, err
		}
		e.chSink = chSink
		sinks.Add(chSink)
	}

	if cfg.VerdictsSubject != "" {
		natsSink, err := sink.NewNATSPublisher(cfg.NATSURL, cfg.VerdictsSubject)
		if err != nil {
			return nil, fmt.Errorf("failed to create verdict publisher: %w", err)
		}
		e.natsSink = natsSink
		sinks.Add(natsSink)
	}

	schedCfg, err := schedulerConfig(cfg.Flow)
	if err != nil {
		return nil, err
	}
	e.scheduler = flow.NewScheduler(e.registry, pipe, sinks, schedCfg)

	return e, nil
}

func schedulerConfig(cfg config.FlowConfig) (flow.SchedulerConfig, error) {
	idleTimeout, err := time.ParseDuration(cfg.IdleTimeout)
	if err != nil {
		return flow.SchedulerConfig{}, fmt.Errorf("invalid flow idle_timeout: %w", err)
	}
	scanInterval, err := time.ParseDuration(cfg.ScanInterval)
	if err != nil {
		return flow.SchedulerConfig{}, fmt.Errorf("invalid flow scan_interval: %w", err)
	}
	flushMaxAge, err := time.ParseDuration(cfg.FlushMaxAge)
	if err != nil {
		return flow.SchedulerConfig{}, fmt.Errorf("invalid flow flush_max_age: %w", err)
	}
	minPackets := cfg.FlushMinPackets
	if minPackets <= 0 {
		minPackets = 3
	}
	return flow.SchedulerConfig{
		ScanInterval:    scanInterval,
		IdleTimeout:     idleTimeout,
		FlushMinPackets: minPackets,
		FlushMaxAge:     flushMaxAge,
	}, nil
}

func channelSize(cfg *config.EngineConfig) int {
	if cfg.SizeOfPacketChannel <= 0 {
		return 1024
	}
	return cfg.SizeOfPacketChannel
}

func workerCount(cfg *config.EngineConfig) int {
	if cfg.NumWorkers <= 0 {
		return 4
	}
	return cfg.NumWorkers
}

// Start launches the worker pool and the lifecycle scheduler.
func (e *Engine) Start() {
	e.workerWg.Add(e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker()
	}
	e.scheduler.Start()
	log.Printf("Engine started with %d workers.", e.numWorkers)
}

// Ingest enqueues one parsed packet. It is the only entry point for packet
// producers and never blocks on classification or I/O.
func (e *Engine) Ingest(pkt *capture.ParsedPacket) {
	e.packetChannel <- pkt
}

func (e *Engine) worker() {
	defer e.workerWg.Done()
	for pkt := range e.packetChannel {
		e.registry.Ingest(pkt.Tuple, pkt.Event)
		metrics.PacketsIngested.Inc()
	}
}

// Stop drains the packet channel, runs the final flow drain through the
// scheduler, and closes the sinks.
func (e *Engine) Stop() {
	log.Println("Engine stopping...")

	close(e.packetChannel)
	e.workerWg.Wait()

	e.scheduler.Stop()

	if e.chSink != nil {
		if err := e.chSink.Close(); err != nil {
			log.Printf("Error closing ClickHouse sink: %v", err)
		}
	}
	if e.natsSink != nil {
		e.natsSink.Close()
	}

	log.Println("Engine stopped.")
}

// Registry exposes the flow registry for health reporting.
func (e *Engine) Registry() *flow.Registry { return e.registry }

// Pipeline exposes the classification pipeline for the API.
func (e *Engine) Pipeline() *pipeline.Pipeline { return e.pipeline }

// Store exposes the in-memory event store for the API.
func (e *Engine) Store() *store.MemoryStore { return e.memStore }

// Emit hands an externally produced event to the same sinks the scheduler
// uses. The API's manual prediction endpoint records events through it.
func (e *Engine) Emit(event *model.DetectionEvent) error {
	return e.memStore.Emit(event)
}
