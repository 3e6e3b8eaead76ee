package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject namespace used when none is configured.
const DefaultSubjectPrefix = "plx.registry"

// NATSPublisher publishes events as JSON messages on
// <prefix>.<entity>.<action> subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// Connect dials a NATS server and returns a publisher over the connection.
func Connect(url, subjectPrefix string, opts ...nats.Option) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return NewNATSPublisher(conn, subjectPrefix), nil
}

// NewNATSPublisher wraps an existing connection. An empty prefix selects
// DefaultSubjectPrefix.
func NewNATSPublisher(conn *nats.Conn, subjectPrefix string) *NATSPublisher {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: subjectPrefix}
}

// Publish sends the event. The write lands on the client's outbound buffer;
// delivery is not awaited.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := Subject(p.prefix, event)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subject builds the NATS subject for an event.
func Subject(prefix string, event Event) string {
	return fmt.Sprintf("%s.%s.%s", prefix, event.Entity, event.Action)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
