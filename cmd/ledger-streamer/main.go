package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-commerce-system/internal/config"
	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/observability"
)

// ledger-streamer consumes purchase events from Kafka and lands them in
// ClickHouse for reporting. Malformed messages go to the DLQ instead of
// blocking the stream.
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("ledger streamer starting", "env", cfg.App.Env)

	kafkaBrokers := strings.Split(cfg.Kafka.BootstrapServers, ",")
	dlqTopic := cfg.Kafka.DLQTopic
	if dlqTopic == "" {
		dlqTopic = cfg.Kafka.Topic + ".dlq"
	}

	// Kafka Producer (for sending to DLQ)
	dlqProducer, err := kgo.NewClient(
		kgo.SeedBrokers(kafkaBrokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		logger.Error("failed to create Kafka producer for DLQ", "error", err)
		os.Exit(1)
	}
	defer dlqProducer.Close()

	// ClickHouse Client: For writing the reporting ledger.
	chConn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouse.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
		},
	})
	if err != nil {
		logger.Error("failed to connect to ClickHouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := chConn.Close(); err != nil {
			logger.Error("Failed to close ClickHouse connection", "error", err)
		}
	}()

	// Subscribe to the purchase event topic. Offsets are committed manually
	// after each processed batch.
	consumerClient, err := kgo.NewClient(
		kgo.SeedBrokers(kafkaBrokers...),
		kgo.ConsumerGroup("ledger-streamer-group"),
		kgo.ConsumeTopics(cfg.Kafka.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		logger.Error("failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumerClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("ledger streamer is running...")

	run := true
	for run {
		select {
		case <-ctx.Done():
			run = false
		default:
			fetches := consumerClient.PollFetches(ctx)
			if fetches.IsClientClosed() || ctx.Err() != nil {
				break
			}

			fetches.EachError(func(t string, p int32, err error) {
				logger.Error("error reading from kafka", "topic", t, "partition", p, "error", err)
			})
			fetches.EachRecord(func(record *kgo.Record) {
				var event domain.PurchaseEvent
				if err := json.Unmarshal(record.Value, &event); err != nil {
					logger.Error("Failed to parse purchase event. Sending to DLQ.", "error", err)
					sendToDLQ(dlqProducer, dlqTopic, record, "unmarshal_error", err.Error())
					return
				}

				amount, _ := event.AmountCharged.Float64()
				seats := 0
				for _, line := range event.LineItems {
					seats += line.Quantity
				}

				err = chConn.Exec(ctx, `
				INSERT INTO purchase_events (operation_type, customer_id, amount_charged, seats, completed_at, ingested_at) VALUES (?, ?, ?, ?, ?, ?)`,
					string(event.OperationType),
					event.CustomerID,
					amount,
					seats,
					event.CompletedAt,
					time.Now(),
				)
				if err != nil {
					logger.Error("Failed to insert into ClickHouse", "error", err, "customer_id", event.CustomerID)
					return
				}

				logger.Info("purchase event ingested", "operation", event.OperationType, "customer_id", event.CustomerID)
			})

			// Commit offsets after successfully processing a batch of messages
			if err := consumerClient.CommitUncommittedOffsets(ctx); err != nil {
				logger.Error("error committing offsets", "error", err)
			}
		}
	}

	logger.Info("ledger streamer stopping...")
}

// sendToDLQ sends the original malformed message to the Dead-Letter Queue.
func sendToDLQ(p *kgo.Client, dlqTopic string, originalRecord *kgo.Record, errorType, errorString string) {
	dlqRecord := &kgo.Record{
		Topic: dlqTopic,
		Value: originalRecord.Value,
		Key:   originalRecord.Key,
		// Add headers with metadata about the failure for easier debugging.
		Headers: []kgo.RecordHeader{
			{Key: "error_type", Value: []byte(errorType)},
			{Key: "error_string", Value: []byte(errorString)},
			{Key: "original_topic", Value: []byte(originalRecord.Topic)},
		},
	}
	p.Produce(context.Background(), dlqRecord, func(r *kgo.Record, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: failed to deliver message to DLQ: %v\n", err)
		}
	})
}
