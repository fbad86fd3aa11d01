// Package jobs publishes order lifecycle events to Pub/Sub for downstream
// consumers (notifications, analytics).
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/ShivaNagula00/toddy-orders/internal/platform/textutil"
	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

// PubSubOrderEventPublisher publishes order events to a Pub/Sub topic.
type PubSubOrderEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderEventPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderEventPublisher(topic *pubsub.Topic) (*PubSubOrderEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order event publisher: topic is required")
	}
	return &PubSubOrderEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderEvent enqueues an order event message on the configured topic.
func (p *PubSubOrderEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order event publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := textutil.NormalizeStringMap(map[string]string{
		"type":    event.Type,
		"orderId": event.OrderID,
		"outcome": event.Outcome,
	})

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
