package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"NetSentry/internal/config"
	"NetSentry/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS detection_events (
    Timestamp        DateTime,
    SrcIP            String,
    DstIP            String,
    SrcPort          UInt16,
    DstPort          UInt16,
    Protocol         String,
    IsAttack         UInt8,
    AttackType       String,
    Severity         String,
    BinaryConfidence Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, AttackType);
`

// ClickHouseSink buffers detection events and writes them to ClickHouse in
// batches, either when the buffer fills or on a periodic flush.
type ClickHouseSink struct {
	conn          driver.Conn
	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []*model.DetectionEvent

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClickHouseSink connects to ClickHouse, ensures the events table exists
// and starts the periodic flusher.
func NewClickHouseSink(cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	flushInterval := 10 * time.Second
	if cfg.FlushInterval != "" {
		d, err := time.ParseDuration(cfg.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid clickhouse flush_interval: %w", err)
		}
		flushInterval = d
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}

	s := &ClickHouseSink{
		conn:          conn,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flusher()

	return s, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Emit buffers an event for the next batch write.
func (s *ClickHouseSink) Emit(event *model.DetectionEvent) error {
	s.mu.Lock()
	s.pending = append(s.pending, event)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.Flush()
	}
	return nil
}

// Flush writes all pending events as one batch.
func (s *ClickHouseSink) Flush() error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	insert, err := s.conn.PrepareBatch(context.Background(), "INSERT INTO detection_events")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range batch {
		isAttack := uint8(0)
		if e.IsAttack {
			isAttack = 1
		}
		if err := insert.Append(
			e.Timestamp,
			e.SrcIP,
			e.DstIP,
			e.SrcPort,
			e.DstPort,
			e.Protocol,
			isAttack,
			e.AttackType,
			e.Severity,
			e.BinaryConfidence,
		); err != nil {
			return fmt.Errorf("failed to append event to batch: %w", err)
		}
	}

	if err := insert.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d detection events to ClickHouse", len(batch))
	return nil
}

func (s *ClickHouseSink) flusher() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				log.Printf("Error flushing events to ClickHouse: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the flusher and writes any remaining events.
func (s *ClickHouseSink) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.Flush()
}
