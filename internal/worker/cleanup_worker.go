package worker

import (
	"Next_Express/internal/metrics"
	"Next_Express/internal/mq"
	"Next_Express/internal/storage"
	"Next_Express/internal/task"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	Bucket   string    `json:"bucket"`
	Key      string    `json:"key"`
	Reason   string    `json:"reason"`
	Attempt  int       `json:"attempt"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// Broker receives the messages a worker cannot finish now.
type Broker interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

// Acknowledger settles a delivery. amqp.Delivery satisfies it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Options tune throughput and retry policy.
type Options struct {
	Prefetch    int
	Concurrency int
	Rate        float64
	Burst       int
	RetryMax    int
	RetryDelays []time.Duration
}

// CleanupWorker retries blob removals that failed inside a request.
type CleanupWorker struct {
	store   storage.Store
	broker  Broker
	limiter *rate.Limiter
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Registry
}

func NewCleanupWorker(store storage.Store, broker Broker, opts Options, logger *zap.Logger, m *metrics.Registry) *CleanupWorker {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &CleanupWorker{
		store:   store,
		broker:  broker,
		limiter: rate.NewLimiter(limit, opts.Burst),
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

// Run consumes the cleanup queue until ctx is done.
func Run(ctx context.Context, client *mq.Client, w *CleanupWorker) error {
	if err := client.DeclareTopology(); err != nil {
		return err
	}
	if err := client.Channel.Qos(w.opts.Prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := client.Channel.Consume(mq.QueueCleanup, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	return w.Consume(ctx, deliveries)
}

// Consume handles deliveries with bounded concurrency until ctx is done or the
// channel closes. It returns only after every started handler has settled its
// delivery, so the caller may close the connection afterwards.
func (w *CleanupWorker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, w.opts.Concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("cleanup worker: delivery channel closed")
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = delivery.Nack(false, true)
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				w.Handle(ctx, d.Body, d)
			}(delivery)
		}
	}
}

// Handle processes one delivery and settles it.
func (w *CleanupWorker) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	msg, err := task.DecodeCleanupMessage(body)
	if err != nil {
		w.logger.Warn("cleanup worker: invalid message", zap.Error(err))
		_ = ack.Ack(false)
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		_ = ack.Nack(false, true)
		return
	}

	procErr := task.ProcessCleanup(ctx, w.store, msg)
	if procErr == nil {
		w.metrics.ObserveCleanup("removed")
		w.logger.Info("orphaned blob removed", zap.String("key", msg.Key), zap.Int("attempt", msg.Attempt))
		_ = ack.Ack(false)
		return
	}
	if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
		_ = ack.Nack(false, true)
		return
	}
	if err := w.scheduleRetry(ctx, msg, procErr); err != nil {
		w.logger.Warn("cleanup worker: retry schedule failed", zap.Error(err))
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}

func (w *CleanupWorker) scheduleRetry(ctx context.Context, msg task.CleanupMessage, procErr error) error {
	next := msg.Attempt + 1
	if w.opts.RetryMax == 0 || next > w.opts.RetryMax {
		return w.deadLetter(ctx, msg, procErr)
	}
	delay := pickRetryDelay(next, w.opts.RetryDelays)
	msg.Attempt = next
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.logger.Warn("blob cleanup failed, retrying",
		zap.String("key", msg.Key),
		zap.Int("attempt", next),
		zap.Duration("delay", delay),
		zap.Error(procErr))
	w.metrics.ObserveCleanup("retried")
	return w.broker.PublishRetry(ctx, body, delay)
}

func (w *CleanupWorker) deadLetter(ctx context.Context, msg task.CleanupMessage, procErr error) error {
	body, err := json.Marshal(dlqMessage{
		Bucket:   msg.Bucket,
		Key:      msg.Key,
		Reason:   msg.Reason,
		Attempt:  msg.Attempt,
		Error:    procErr.Error(),
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	w.logger.Error("blob cleanup abandoned", zap.String("key", msg.Key), zap.Int("attempt", msg.Attempt), zap.Error(procErr))
	w.metrics.ObserveCleanup("dead_lettered")
	if err := w.broker.PublishDLQ(ctx, body); err != nil {
		w.logger.Warn("cleanup worker: dlq publish failed", zap.Error(err))
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
