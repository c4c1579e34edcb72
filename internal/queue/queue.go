// Package queue moves confirmation tasks between the API process and the
// worker over Kafka. Delivery is at-least-once; execute-at-most-once is
// enforced downstream by the batch claim row, so the consumer always
// commits its offset after handing a task off.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"

	"carrental/internal/entities"
)

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// ConfigFromEnv reads the Kafka settings, with defaults suitable for a
// local single-broker setup.
func ConfigFromEnv() Config {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := os.Getenv("KAFKA_CONFIRMATIONS_TOPIC")
	if topic == "" {
		topic = "quote-confirmations"
	}
	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "confirmation-workers"
	}
	return Config{
		Brokers: strings.Split(brokers, ","),
		Topic:   topic,
		GroupID: groupID,
	}
}

// Producer publishes confirmation tasks keyed by batch id, so all
// deliveries of one batch land on the same partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}
	return &Producer{writer: writer}
}

func (p *Producer) PublishTask(ctx context.Context, task entities.ConfirmationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("error encoding confirmation task: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.BatchID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("error publishing batch %s: %w", task.BatchID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// TaskHandler processes one delivered confirmation task.
type TaskHandler func(ctx context.Context, task entities.ConfirmationTask) error

// Consumer reads confirmation tasks and hands them to the handler. Handler
// errors are logged and the offset is committed anyway: a failed batch is
// reported through its notification, never retried by redelivery.
type Consumer struct {
	reader  *kafka.Reader
	handler TaskHandler
}

func NewConsumer(cfg Config, handler TaskHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(log.Printf),
	})
	return &Consumer{reader: reader, handler: handler}
}

func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Error fetching confirmation task: %v", err)
			continue
		}

		var task entities.ConfirmationTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			log.Printf("Dropping undecodable confirmation task at offset %d: %v", msg.Offset, err)
		} else if err := c.handler(ctx, task); err != nil {
			log.Printf("Confirmation batch %s failed: %v", task.BatchID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("Error committing offset for batch %s: %v", task.BatchID, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
