package probe

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"NetSentry/internal/capture"
)

// Subscriber consumes packet envelopes from a NATS subject and hands the
// decoded packets to a handler.
type Subscriber struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewSubscriber connects to the NATS server.
func NewSubscriber(natsURL string) (*Subscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", natsURL)
	return &Subscriber{nc: nc}, nil
}

// Start subscribes to the subject and begins dispatching packets.
func (s *Subscriber) Start(subject string, handler capture.PacketHandler) error {
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		var env packetEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Printf("Error unmarshalling packet envelope: %v", err)
			return
		}
		handler(env.toParsed())
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for packets...", subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
