package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/resumelane/platform/internal/infra"
)

const (
	topic   = "resumelane.credits.entry_posted"
	groupID = "resumelane-credits-consumer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, groupID, cfg.KafkaEnabled, logger)
	defer consumer.Close()

	if !consumer.Enabled() {
		return fmt.Errorf("kafka is disabled; set KAFKA_ENABLED=true and KAFKA_BROKERS to run the consumer")
	}

	logger.Info("outbox-consumer starting", "topic", topic, "group_id", groupID)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("outbox-consumer shutting down")
				return nil
			}
			logger.Error("read message failed", "error", err)
			continue
		}

		var event struct {
			EventID       string          `json:"event_id"`
			AggregateType string          `json:"aggregate_type"`
			AggregateID   string          `json:"aggregate_id"`
			EventType     string          `json:"event_type"`
			Payload       json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("malformed event", "offset", msg.Offset, "error", err)
			continue
		}

		logger.Info("ledger event",
			"event_id", event.EventID,
			"aggregate_type", event.AggregateType,
			"aggregate_id", event.AggregateID,
			"event_type", event.EventType,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	}
}
