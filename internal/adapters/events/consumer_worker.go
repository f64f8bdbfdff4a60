package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// BehaviorHandler ingests behavior events published by other services.
type BehaviorHandler interface {
	HandleBehaviorRecorded(ctx context.Context, payload []byte) error
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  BehaviorHandler
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler BehaviorHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{logger: logger, consumer: consumer, handler: handler, interval: interval}
}

// Topics lists what the worker subscribes to.
func Topics() []string {
	return []string{domain.EventBehaviorRecorded}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		switch msg.Topic {
		case domain.EventBehaviorRecorded:
			if err := w.handler.HandleBehaviorRecorded(ctx, msg.Payload); err != nil {
				w.logger.WarnContext(ctx, "failed to handle behavior event",
					"module", "events.consumer_worker",
					"layer", "adapter",
					"operation", "handle_behavior_recorded",
					"outcome", "failure",
					"partition_key", msg.Key,
					"error", err,
				)
			}
		default:
			w.logger.DebugContext(ctx, "ignoring message", "topic", msg.Topic)
		}
	}
	return nil
}
