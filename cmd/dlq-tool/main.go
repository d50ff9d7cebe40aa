package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-commerce-system/internal/config"
	"storefront-commerce-system/internal/observability"
)

func main() {
	// --- Configuration Setup ---
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("DLQ tool starting", "env", cfg.App.Env)

	var kafkaBrokers string
	var dlqTopic string

	var rootCmd = &cobra.Command{Use: "dlq-tool"}
	rootCmd.PersistentFlags().StringVar(&kafkaBrokers, "brokers", "localhost:9092", "Kafka broker addresses")
	rootCmd.PersistentFlags().StringVar(&dlqTopic, "dlq-topic", "purchases.completed.dlq", "DLQ topic name")

	var viewCmd = &cobra.Command{
		Use:   "view",
		Short: "View messages in the DLQ",
		Run: func(cmd *cobra.Command, _ []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			logger.Info("viewing latest messages", "topic", dlqTopic, "limit", limit)

			brokers := strings.Split(kafkaBrokers, ",")
			client, err := kgo.NewClient(
				kgo.SeedBrokers(brokers...),
				kgo.ConsumerGroup("dlq-tool-viewer"),
				kgo.ConsumeTopics(dlqTopic),
				kgo.FetchMaxWait(5*time.Second),
				// Read from the start of the topic
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			if err != nil {
				logger.Error("failed to create consumer", "error", err)
				os.Exit(1)
			}
			defer client.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OFFSET\tKEY\tERROR_TYPE\tERROR_STRING")
			fmt.Fprintln(w, "------\t---\t----------\t------------")

			msgCount := 0
			ctx := context.Background()

			for msgCount < limit {
				fetches := client.PollFetches(ctx)
				if fetches.IsClientClosed() {
					break
				}
				if len(fetches.Records()) == 0 {
					logger.Info("no more messages in topic")
					break
				}

				fetches.EachRecord(func(record *kgo.Record) {
					if msgCount >= limit {
						return
					}
					errorType, errorString := getErrorHeaders(record.Headers)
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", record.Offset, string(record.Key), errorType, errorString)
					msgCount++
				})
			}
			if err := w.Flush(); err != nil {
				logger.Error("failed to flush writer", "error", err)
			}
		},
	}
	viewCmd.Flags().Int("limit", 10, "Number of messages to view")

	var retryCmd = &cobra.Command{
		Use:   "retry [partition:offset]",
		Short: "Re-send one DLQ message by its partition and offset",
		Args:  cobra.ExactArgs(1),

		Run: func(cmd *cobra.Command, args []string) {
			targetTopic, _ := cmd.Flags().GetString("target-topic")
			partition, offset := parsePartitionOffset(args[0])
			logger.Info("re-sending message", "from_topic", dlqTopic, "partition", partition, "offset", offset, "to_topic", targetTopic)

			brokers := strings.Split(kafkaBrokers, ",")
			producer, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
			if err != nil {
				logger.Error("failed to create producer", "error", err)
				os.Exit(1)
			}
			defer producer.Close()

			// Consumer pinned to the one record we want back
			consumer, err := kgo.NewClient(
				kgo.SeedBrokers(brokers...),
				kgo.ConsumerGroup("dlq-tool-retrier"),
				kgo.ConsumeTopics(dlqTopic),
				kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
					dlqTopic: {int32(partition): kgo.NewOffset().At(offset)},
				}),
			)
			if err != nil {
				logger.Error("failed to create consumer", "error", err)
				os.Exit(1)
			}
			defer consumer.Close()

			logger.Info("reading message at the given offset...")
			fetches := consumer.PollFetches(context.Background())
			if err := fetches.Err(); err != nil {
				logger.Error("failed to read message", "error", err)
				os.Exit(1)
			}
			records := fetches.Records()
			if len(records) == 0 {
				logger.Error("no message found at the given offset")
				os.Exit(1)
			}
			record := records[0]

			retryRecord := &kgo.Record{
				Topic: targetTopic,
				Value: record.Value,
				Key:   record.Key,
			}
			// Produce synchronously so we can report the outcome
			if err := producer.ProduceSync(context.Background(), retryRecord).FirstErr(); err != nil {
				logger.Error("failed to re-send message", "error", err)
				os.Exit(1)
			}

			logger.Info("message re-sent for processing")
		},
	}
	retryCmd.Flags().String("target-topic", "purchases.completed", "Topic to re-send the message to")

	rootCmd.AddCommand(viewCmd, retryCmd)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// Helper functions

// getErrorHeaders extracts error_type and error_string from Kafka headers
func getErrorHeaders(headers []kgo.RecordHeader) (string, string) {
	var errorType, errorString = "N/A", "N/A"
	for _, h := range headers {
		if h.Key == "error_type" {
			errorType = string(h.Value)
		}
		if h.Key == "error_string" {
			errorString = string(h.Value)
		}
	}
	return errorType, errorString
}

// parsePartitionOffset parses a "partition:offset" argument
func parsePartitionOffset(arg string) (int, int64) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		fmt.Fprintln(os.Stderr, "Invalid format. Expected partition:offset, e.g. 0:123")
		os.Exit(1)
	}
	partition, err := strconv.Atoi(parts[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid partition number: %v\n", err)
		os.Exit(1)
	}
	offset, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid offset: %v\n", err)
		os.Exit(1)
	}
	return partition, offset
}
