package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ShivaNagula00/toddy-orders/internal/services"
)

func TestPubSubOrderEventPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderEventPublisher: %v", err)
	}

	event := services.OrderEvent{
		Type:       "order.resolved",
		OrderID:    "01J0TEST",
		Outcome:    "success",
		Total:      330,
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.OrderEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != event.OrderID || payload.Total != event.Total {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["outcome"]; attr != "success" {
		t.Fatalf("expected outcome attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["type"]; attr != "order.resolved" {
		t.Fatalf("expected type attribute, got %q", attr)
	}
}

func TestNewPubSubOrderEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderEventPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
