package service

import (
	"Next_Express/internal/metrics"
	"Next_Express/internal/storage"
	"context"

	"go.uber.org/zap"
)

// CleanupQueue accepts blob removals that failed inline, for a worker to retry.
type CleanupQueue interface {
	EnqueueCleanup(ctx context.Context, bucket, key, reason string) error
}

// Cleanup outcomes.
const (
	CleanupSkipped = "skipped"
	CleanupRemoved = "removed"
	CleanupFailed  = "failed"
	CleanupQueued  = "queued"
)

// CleanupOutcome is the advisory result of removing a blob after (or beside)
// a primary operation. It is logged and counted, never returned as the
// operation's error.
type CleanupOutcome struct {
	Key     string
	Reason  string
	Outcome string
	Err     error
}

// Failed reports whether the blob may still exist.
func (o CleanupOutcome) Failed() bool {
	return o.Outcome == CleanupFailed || o.Outcome == CleanupQueued
}

// BlobCleaner removes orphaned or replaced blobs on a best-effort basis.
type BlobCleaner struct {
	store   storage.Store
	bucket  string
	queue   CleanupQueue
	logger  *zap.Logger
	metrics *metrics.Registry
}

func NewBlobCleaner(store storage.Store, bucket string, queue CleanupQueue, logger *zap.Logger, m *metrics.Registry) *BlobCleaner {
	return &BlobCleaner{store: store, bucket: bucket, queue: queue, logger: logger, metrics: m}
}

// Remove deletes key. A failure is logged and, when a queue is configured,
// handed over for a later retry.
func (c *BlobCleaner) Remove(ctx context.Context, key, reason string) CleanupOutcome {
	out := CleanupOutcome{Key: key, Reason: reason}
	if key == "" {
		out.Outcome = CleanupSkipped
		return out
	}
	err := c.store.RemoveObject(ctx, c.bucket, key)
	if err == nil {
		out.Outcome = CleanupRemoved
		c.metrics.ObserveCleanup(out.Outcome)
		return out
	}

	out.Err = err
	out.Outcome = CleanupFailed
	c.logger.Warn("advisory blob cleanup failed",
		zap.String("key", key),
		zap.String("reason", reason),
		zap.Error(err))
	if c.queue != nil {
		// the request context may already be cancelled; the hand-off must not be
		if qErr := c.queue.EnqueueCleanup(context.WithoutCancel(ctx), c.bucket, key, reason); qErr != nil {
			c.logger.Warn("enqueue blob cleanup failed", zap.String("key", key), zap.Error(qErr))
		} else {
			out.Outcome = CleanupQueued
		}
	}
	c.metrics.ObserveCleanup(out.Outcome)
	return out
}
