package sink

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"NetSentry/internal/model"
)

// NATSPublisher broadcasts each detection event as JSON on a NATS subject,
// giving live dashboards a push feed of verdicts.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS and returns a live event publisher.
func NewNATSPublisher(natsURL, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Verdict publisher connected to NATS server at %s", natsURL)
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

// Emit publishes the event.
func (p *NATSPublisher) Emit(event *model.DetectionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
