package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes envelopes on NATS subjects prefixed with the configured base.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// ConnectNATS dials the server and returns a publisher.
func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("risetutor-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return NewNATSPublisher(conn, prefix), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := Encode(ctx, subject, payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(qualify(p.prefix, subject), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
