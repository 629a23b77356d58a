package queue

import (
	"context"
	"fmt"

	"confreg/internal/notification"
	"confreg/internal/platform/kafka"
)

// Publisher is the producing half of a Kafka client.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Subscriber is the consuming half of a Kafka client.
type Subscriber interface {
	Run(ctx context.Context, handle kafka.Handler) error
}

// Kafka publishes jobs to a topic keyed by registration id so every job for a
// registrant lands on one partition in order.
type Kafka struct {
	publisher  Publisher
	subscriber Subscriber
	topic      string
}

// NewKafka wires a producer and consumer to topic. subscriber may be nil for
// a publish-only instance.
func NewKafka(publisher Publisher, subscriber Subscriber, topic string) *Kafka {
	return &Kafka{publisher: publisher, subscriber: subscriber, topic: topic}
}

func (q *Kafka) Enqueue(ctx context.Context, job notification.Job) error {
	payload, err := job.Encode()
	if err != nil {
		return fmt.Errorf("encode notification job: %w", err)
	}
	headers := map[string]string{"kind": string(job.Kind)}
	if job.RequestID != "" {
		headers["request_id"] = job.RequestID
	}
	key := []byte(job.Registration.RegistrationID)
	return q.publisher.Publish(ctx, q.topic, key, payload, headers)
}

func (q *Kafka) Consume(ctx context.Context, handle func(ctx context.Context, job notification.Job) error) error {
	if q.subscriber == nil {
		<-ctx.Done()
		return nil
	}
	return q.subscriber.Run(ctx, func(ctx context.Context, msg *kafka.Message) error {
		job, err := notification.DecodeJob(msg.Value)
		if err != nil {
			return err
		}
		return handle(ctx, job)
	})
}
