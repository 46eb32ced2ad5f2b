// Package pubsub publishes run reports to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// Publisher sends messages to Pub/Sub topics within one project.
type Publisher struct {
	client *pubsub.Client
}

// New connects a Pub/Sub client for the given project.
func New(ctx context.Context, projectID string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Publisher{client: client}, nil
}

// Publish sends payload to topic and returns the server-assigned message id.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	publisher := p.client.Publisher(topic)
	defer publisher.Stop()

	result := publisher.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	return id, nil
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
