package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"Next_Express/internal/metrics"
	"Next_Express/internal/storage"
	"Next_Express/internal/task"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenStore struct {
	storage.Store
	err error
}

func (s brokenStore) RemoveObject(ctx context.Context, bucket, object string) error {
	return s.err
}

type fakeBroker struct {
	retries [][]byte
	delays  []time.Duration
	dlq     [][]byte
}

func (b *fakeBroker) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	b.retries = append(b.retries, body)
	b.delays = append(b.delays, delay)
	return nil
}

func (b *fakeBroker) PublishDLQ(ctx context.Context, body []byte) error {
	b.dlq = append(b.dlq, body)
	return nil
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAck) Nack(multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

var testOpts = Options{RetryMax: 2, RetryDelays: []time.Duration{time.Second, time.Minute}}

func body(t *testing.T, msg task.CleanupMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestHandleRemovesBlob(t *testing.T) {
	store := storage.NewMemoryStore("s", "http://localhost")
	m := metrics.New()
	w := NewCleanupWorker(store, &fakeBroker{}, testOpts, zap.NewNop(), m)

	ack := &fakeAck{}
	w.Handle(context.Background(), body(t, task.CleanupMessage{Bucket: "b", Key: "files/a"}), ack)
	assert.True(t, ack.acked)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CleanupOutcomes.WithLabelValues("removed")))
}

func TestHandleSchedulesRetryThenDeadLetters(t *testing.T) {
	broker := &fakeBroker{}
	w := NewCleanupWorker(brokenStore{err: errors.New("s3 down")}, broker, testOpts, zap.NewNop(), metrics.New())
	msg := task.CleanupMessage{Bucket: "b", Key: "files/a", Reason: "file deleted"}

	for attempt := 0; attempt < 2; attempt++ {
		msg.Attempt = attempt
		ack := &fakeAck{}
		w.Handle(context.Background(), body(t, msg), ack)
		assert.True(t, ack.acked)
	}
	require.Len(t, broker.retries, 2)
	assert.Equal(t, []time.Duration{time.Second, time.Minute}, broker.delays)

	var retried task.CleanupMessage
	require.NoError(t, json.Unmarshal(broker.retries[1], &retried))
	assert.Equal(t, 2, retried.Attempt)

	msg.Attempt = 2
	ack := &fakeAck{}
	w.Handle(context.Background(), body(t, msg), ack)
	assert.True(t, ack.acked)
	require.Len(t, broker.dlq, 1)

	var dead dlqMessage
	require.NoError(t, json.Unmarshal(broker.dlq[0], &dead))
	assert.Equal(t, "files/a", dead.Key)
	assert.Equal(t, "s3 down", dead.Error)
}

func TestHandleInvalidMessageIsDropped(t *testing.T) {
	broker := &fakeBroker{}
	w := NewCleanupWorker(storage.NewMemoryStore("s", "http://localhost"), broker, testOpts, zap.NewNop(), nil)
	ack := &fakeAck{}
	w.Handle(context.Background(), []byte("{"), ack)
	assert.True(t, ack.acked)
	assert.Empty(t, broker.retries)
}

func TestHandleCancelledRequeues(t *testing.T) {
	w := NewCleanupWorker(brokenStore{err: context.Canceled}, &fakeBroker{}, testOpts, zap.NewNop(), nil)
	ack := &fakeAck{}
	w.Handle(context.Background(), body(t, task.CleanupMessage{Bucket: "b", Key: "k"}), ack)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestPickRetryDelay(t *testing.T) {
	delays := []time.Duration{time.Second, time.Minute}
	assert.Equal(t, time.Second, pickRetryDelay(0, delays))
	assert.Equal(t, time.Minute, pickRetryDelay(2, delays))
	assert.Equal(t, time.Minute, pickRetryDelay(9, delays))
	assert.Equal(t, time.Duration(0), pickRetryDelay(1, nil))
}

// gatedStore blocks removals until gate is closed.
type gatedStore struct {
	storage.Store
	started chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) RemoveObject(ctx context.Context, bucket, object string) error {
	close(s.started)
	<-s.gate
	return nil
}

// deliveryAcks settles amqp deliveries in memory.
type deliveryAcks struct {
	mu              sync.Mutex
	acked, requeued int
}

func (a *deliveryAcks) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *deliveryAcks) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *deliveryAcks) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestConsumeWaitsForInFlightHandlers(t *testing.T) {
	store := &gatedStore{
		Store:   storage.NewMemoryStore("s", "http://localhost"),
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	w := NewCleanupWorker(store, &fakeBroker{}, testOpts, zap.NewNop(), metrics.New())

	acks := &deliveryAcks{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{
		Acknowledger: acks,
		DeliveryTag:  1,
		Body:         body(t, task.CleanupMessage{Bucket: "b", Key: "files/a"}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Consume(ctx, deliveries) }()

	<-store.started
	cancel()
	select {
	case <-done:
		t.Fatal("consume returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.gate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consume did not return")
	}
	acks.mu.Lock()
	defer acks.mu.Unlock()
	assert.Equal(t, 1, acks.acked)
}

func TestConsumeStopsOnClosedChannel(t *testing.T) {
	w := NewCleanupWorker(storage.NewMemoryStore("s", "http://localhost"), &fakeBroker{}, testOpts, zap.NewNop(), metrics.New())
	deliveries := make(chan amqp.Delivery)
	close(deliveries)
	assert.Error(t, w.Consume(context.Background(), deliveries))
}
