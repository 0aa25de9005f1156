package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/safarbet/safarbet/internal/pkg/logger"
)

// MessageHandler is a function that processes NATS messages
type MessageHandler func(message []byte) error

// Consumer handles consuming messages from a NATS subject
type Consumer struct {
	subscription *nats.Subscription
}

// NewConsumer subscribes to a subject within a queue group so multiple
// instances share the stream instead of each receiving every message.
func NewConsumer(client *Client, subject, queueGroup string, handler MessageHandler) (*Consumer, error) {
	sub, err := client.GetConn().QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			logger.Error("Error processing message",
				logger.String("subject", subject),
				logger.String("queue_group", queueGroup),
				logger.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	return &Consumer{subscription: sub}, nil
}

// Stop unsubscribes the consumer
func (c *Consumer) Stop() error {
	if c.subscription != nil {
		return c.subscription.Unsubscribe()
	}
	return nil
}
