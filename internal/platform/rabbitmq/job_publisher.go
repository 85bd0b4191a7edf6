package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"studydesk/internal/model"
)

// SummarizeJobPublisher enqueues summarize jobs on a durable queue so the
// upload response never waits on the summarization model.
type SummarizeJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewSummarizeJobPublisher(conn *amqp.Connection, queueName string) *SummarizeJobPublisher {
	return &SummarizeJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *SummarizeJobPublisher) Publish(ctx context.Context, job model.SummarizeJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal summarize job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish summarize job failed: %w", err)
	}
	return nil
}
