package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc executes one job. A returned error causes the delivery to be
// rejected without requeueing; the broker then dead-letters it onto the
// companion queue and the job row records the failure.
type HandlerFunc func(ctx context.Context, job Job) error

// Worker consumes the job queue with a fixed number of consumers and
// dispatches each job to the handler.
type Worker struct {
	conn      *amqp.Connection
	queueName string
	consumers int
	handler   HandlerFunc
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(conn *amqp.Connection, queueName string, consumers int, handler HandlerFunc, log *zap.Logger) *Worker {
	if consumers < 1 {
		consumers = 1
	}
	return &Worker{
		conn:      conn,
		queueName: queueName,
		consumers: consumers,
		handler:   handler,
		log:       log,
	}
}

// Start declares the queue and launches the consumer goroutines. Calling
// Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.consumers; i++ {
		ch, err := w.conn.Channel()
		if err != nil {
			cancel()
			return fmt.Errorf("open worker channel failed: %w", err)
		}

		if err := declareJobQueue(ch, w.queueName); err != nil {
			_ = ch.Close()
			cancel()
			return err
		}

		if err := ch.Qos(1, 0, false); err != nil {
			_ = ch.Close()
			cancel()
			return fmt.Errorf("set worker qos failed: %w", err)
		}

		deliveries, err := ch.Consume(
			w.queueName,
			"",
			false,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			cancel()
			return fmt.Errorf("consume queue failed: %w", err)
		}

		w.wg.Add(1)
		go w.consume(workerCtx, ch, deliveries)
	}

	return nil
}

func (w *Worker) consume(ctx context.Context, ch *amqp.Channel, deliveries <-chan amqp.Delivery) {
	defer w.wg.Done()
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}

			var job Job
			if err := json.Unmarshal(d.Body, &job); err != nil {
				w.log.Error("worker decode job failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			if err := w.handler(ctx, job); err != nil {
				w.log.Error("worker job failed",
					zap.String("job_type", string(job.Type)),
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
				_ = d.Nack(false, false)
				continue
			}

			w.log.Info("worker job done",
				zap.String("job_type", string(job.Type)),
				zap.String("job_id", job.ID),
			)
			_ = d.Ack(false)
		}
	}
}

// Close stops the consumers and waits for in-flight jobs to finish.
func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
