package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/propagation"

	"github.com/matthewbaird/portfolio-analytics/internal/event"
)

// MsgPublisher is the part of *nats.Conn the forwarder uses.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

var propagator = propagation.TraceContext{}

// NATSForwarder publishes every event as JSON to prefix + "." + event type,
// carrying the trace context and event metadata in headers.
type NATSForwarder struct {
	conn   MsgPublisher
	prefix string
}

// NewNATSForwarder returns a forwarder publishing under prefix.
func NewNATSForwarder(conn MsgPublisher, prefix string) *NATSForwarder {
	return &NATSForwarder{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of eventType is published to.
func (f *NATSForwarder) Subject(eventType string) string {
	return f.prefix + "." + eventType
}

func (f *NATSForwarder) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", evt.ID, err)
	}
	hdr := nats.Header{}
	propagator.Inject(ctx, propagation.HeaderCarrier(hdr))
	hdr.Set("Lcm-Event-Id", evt.ID)
	hdr.Set("Lcm-Event-Type", evt.EventType)
	hdr.Set("Lcm-Weight", evt.Weight)

	msg := &nats.Msg{Subject: f.Subject(evt.EventType), Data: data, Header: hdr}
	if err := f.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing %s: %w", msg.Subject, err)
	}
	return nil
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("portfolio-analytics"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", url, err)
	}
	return nc, nil
}
