package queue

// Package queue moves document processing, comparison runs and report
// generation off the request path. Jobs are small JSON envelopes on a
// durable RabbitMQ queue; the heavy lifting stays in the services.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobType selects which pipeline a job runs.
type JobType string

const (
	JobProcessDocument JobType = "process_document"
	JobRunComparison   JobType = "run_comparison"
	JobGenerateReport  JobType = "generate_report"
)

// Job is the queue envelope. ID refers to the document, comparison or report
// row the job operates on, depending on Type.
type Job struct {
	Type JobType `json:"type"`
	ID   string  `json:"id"`
}

// New dials the broker and verifies a channel can be opened before handing
// the connection out.
func New(ctx context.Context, url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		ch, chErr := conn.Channel()
		if chErr == nil {
			ch.Close()
		}
		done <- chErr
	}()

	select {
	case <-checkCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq health check timeout: %w", checkCtx.Err())
	case err := <-done:
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
		}
		return conn, nil
	}
}

// deadLetterSuffix names the companion queue that keeps rejected jobs for
// inspection instead of dropping them.
const deadLetterSuffix = ".dead"

// deadLetterQueueName returns the dead-letter queue paired with a job queue.
func deadLetterQueueName(queueName string) string {
	return queueName + deadLetterSuffix
}

// jobQueueArgs routes rejected deliveries to the dead-letter queue through
// the default exchange.
func jobQueueArgs(queueName string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": deadLetterQueueName(queueName),
	}
}

// declareJobQueue declares the durable job queue and its dead-letter queue.
// Publisher and worker both declare through here; RabbitMQ rejects redeclares
// with different arguments, so the declaration must stay in one place.
func declareJobQueue(ch *amqp.Channel, queueName string) error {
	if _, err := ch.QueueDeclare(
		deadLetterQueueName(queueName),
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare dead-letter queue failed: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		jobQueueArgs(queueName),
	); err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}
	return nil
}

// Publisher enqueues jobs on a single durable queue.
type Publisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewPublisher(conn *amqp.Connection, queueName string) *Publisher {
	return &Publisher{conn: conn, queueName: queueName}
}

// Publish declares the queue and sends one persistent job message.
func (p *Publisher) Publish(ctx context.Context, job Job) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareJobQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job payload failed: %w", err)
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
		return fmt.Errorf("publish job failed: %w", err)
	}
	return nil
}
