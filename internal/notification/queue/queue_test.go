package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"confreg/internal/notification"
	"confreg/internal/platform/kafka"
	"confreg/internal/registration/models"
)

func testJob(kind notification.Kind) notification.Job {
	rec := &models.Registration{RegistrationID: "D1700000000123", Name: "Asha", Mobile: "9000000001"}
	return notification.NewJob(kind, rec, "req-1", time.Now())
}

func TestMemory_EnqueueAndConsume(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewMemory(2)
	require.NoError(t, q.Enqueue(context.Background(), testJob(notification.KindEmail)))
	assert.Equal(t, 1, q.Len())

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan notification.Job, 1)
	done := make(chan error, 1)
	go func() {
		done <- q.Consume(ctx, func(_ context.Context, job notification.Job) error {
			got <- job
			return nil
		})
	}()

	select {
	case job := <-got:
		assert.Equal(t, notification.KindEmail, job.Kind)
	case <-time.After(time.Second):
		t.Fatal("job not consumed")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestMemory_FullBufferRejects(t *testing.T) {
	q := NewMemory(1)
	require.NoError(t, q.Enqueue(context.Background(), testJob(notification.KindEmail)))
	err := q.Enqueue(context.Background(), testJob(notification.KindWhatsApp))
	assert.ErrorIs(t, err, ErrFull)
}

type fakeBroker struct {
	mu       sync.Mutex
	messages []*kafka.Message
}

func (b *fakeBroker) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, &kafka.Message{Topic: topic, Key: key, Value: value, Headers: headers})
	return nil
}

func (b *fakeBroker) Run(ctx context.Context, handle kafka.Handler) error {
	b.mu.Lock()
	msgs := append([]*kafka.Message(nil), b.messages...)
	b.mu.Unlock()
	for _, m := range msgs {
		_ = handle(ctx, m)
	}
	return nil
}

func TestKafka_RoundTripsJobs(t *testing.T) {
	broker := &fakeBroker{}
	q := NewKafka(broker, broker, "confreg.notifications")

	job := testJob(notification.KindCertificate)
	require.NoError(t, q.Enqueue(context.Background(), job))
	require.Len(t, broker.messages, 1)
	assert.Equal(t, "D1700000000123", string(broker.messages[0].Key))
	assert.Equal(t, "certificate", broker.messages[0].Headers["kind"])

	var consumed []notification.Job
	require.NoError(t, q.Consume(context.Background(), func(_ context.Context, j notification.Job) error {
		consumed = append(consumed, j)
		return nil
	}))
	require.Len(t, consumed, 1)
	assert.Equal(t, job.ID, consumed[0].ID)
	assert.Equal(t, "Asha", consumed[0].Registration.Name)
}
