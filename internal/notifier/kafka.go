// Package notifier publishes order-confirmation events. Delivery is best
// effort: the ledger fires and forgets, and failures are only logged.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/pkg/utils"

	"github.com/segmentio/kafka-go"
)

type kafkaNotifier struct {
	logger *slog.Logger
	writer *kafka.Writer
}

func NewKafkaNotifier(logger *slog.Logger, cfg config.Notify) *kafkaNotifier {
	return &kafkaNotifier{
		logger: logger.With(slog.String("notifier", "kafka")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

type orderCreatedEvent struct {
	Event     string    `json:"event"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Total     int64     `json:"total"`
	Currency  string    `json:"currency"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *kafkaNotifier) NotifyOrderCreated(ctx context.Context, order entities.Order) error {
	value, err := json.Marshal(orderCreatedEvent{
		Event:     "order.created",
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Currency:  order.Currency,
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}

	return utils.Retry(cfg, func() error {
		return n.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(order.ID),
			Value: value,
		})
	})
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
