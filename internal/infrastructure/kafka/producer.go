package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/pkg/kafka/producer"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type outcomeEvent struct {
	Recipient string    `json:"recipient"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// OutcomePublisher emits every recorded payout outcome to a topic, keyed by recipient.
type OutcomePublisher struct {
	*producer.Producer
	topic string
}

func NewOutcomePublisher(producer *producer.Producer, topic string) *OutcomePublisher {
	return &OutcomePublisher{
		producer,
		topic,
	}
}

func (op *OutcomePublisher) Publish(ctx context.Context, outcome entity.PayoutOutcome) error {
	msg, err := newMessage(op.topic, outcome)
	if err != nil {
		return fmt.Errorf("OutcomePublisher - Publish - newMessage: %w", err)
	}

	err = op.Writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("OutcomePublisher - Publish - op.Writer.WriteMessages: %w", err)
	}

	return nil
}

func newMessage(topic string, outcome entity.PayoutOutcome) (kafka.Message, error) {
	payload, err := json.Marshal(outcomeEvent{
		Recipient: outcome.Recipient,
		Amount:    outcome.Amount.StringFixed(2),
		Status:    string(outcome.Status),
		Detail:    outcome.Detail,
		CreatedAt: outcome.CreatedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(outcome.Recipient),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "status", Value: []byte(outcome.Status)},
		},
	}, nil
}

func (op *OutcomePublisher) Close() error {
	err := op.Producer.Close()
	if err != nil {
		return fmt.Errorf("OutcomePublisher - Close: %w", err)
	}

	return nil
}
