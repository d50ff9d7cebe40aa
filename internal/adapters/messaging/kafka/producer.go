package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-commerce-system/internal/core/domain"
)

// Publisher is an implementation of the EventPublisher port for Kafka.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewPublisher creates a new Kafka publisher instance.
func NewPublisher(bootstrapServers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	// Checking the connection
	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// PublishPurchaseCompleted publishes the summary of a completed commerce
// operation. Delivery is asynchronous; failures are logged, not returned.
func (p *Publisher) PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.CustomerID),
		Value: payload,
	}

	p.wg.Add(1)
	// Produce sends a record asynchronously.
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer p.wg.Done()
		if err != nil {
			p.logger.Error("failed to deliver purchase event to kafka", "topic", r.Topic, "error", err)
		} else {
			p.logger.Debug("purchase event delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
		}
	})

	return nil
}

// Close waits for in-flight deliveries and stops the producer.
func (p *Publisher) Close() {
	p.logger.Info("waiting for in-flight kafka deliveries...")
	p.wg.Wait()
	p.client.Close()
	p.logger.Info("kafka client stopped")
}
