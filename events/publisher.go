package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/segmentio/kafka-go"
)

const SalaryEntryCreated = "salary_entry.created"

// Event is the message body written for ledger changes.
type Event struct {
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Salary     *dto.SalaryEntry `json:"salary"`
}

// Publisher announces ledger changes to other services.
type Publisher interface {
	PublishSalaryCreated(ctx context.Context, entry *dto.SalaryEntry) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishSalaryCreated writes the entry keyed by owner, so one owner's events
// stay ordered within a partition.
func (p *KafkaPublisher) PublishSalaryCreated(ctx context.Context, entry *dto.SalaryEntry) error {
	data, err := json.Marshal(Event{
		Type:       SalaryEntryCreated,
		OccurredAt: time.Now().UTC(),
		Salary:     entry,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.OwnerID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(SalaryEntryCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", SalaryEntryCreated, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSalaryCreated(context.Context, *dto.SalaryEntry) error { return nil }

func (NoopPublisher) Close() error { return nil }
