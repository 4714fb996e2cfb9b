package task

import (
	"Next_Express/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"time"
)

// CleanupMessage is the payload sent to the worker.
type CleanupMessage struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Reason     string    `json:"reason"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Publisher puts a message on the cleanup queue.
type Publisher interface {
	PublishTask(ctx context.Context, body []byte) error
}

// QueuePublisher hands failed advisory cleanups to the worker. get is called
// per message so a dropped broker connection is redialed.
type QueuePublisher struct {
	get func() (Publisher, error)
	now func() time.Time
}

func NewQueuePublisher(get func() (Publisher, error)) *QueuePublisher {
	return &QueuePublisher{get: get, now: time.Now}
}

// EnqueueCleanup publishes a first attempt for bucket/key.
func (p *QueuePublisher) EnqueueCleanup(ctx context.Context, bucket, key, reason string) error {
	body, err := json.Marshal(CleanupMessage{
		Bucket:     bucket,
		Key:        key,
		Reason:     reason,
		EnqueuedAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}
	pub, err := p.get()
	if err != nil {
		return err
	}
	return pub.PublishTask(ctx, body)
}

// DecodeCleanupMessage parses a delivery body.
func DecodeCleanupMessage(body []byte) (CleanupMessage, error) {
	var msg CleanupMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, err
	}
	if msg.Key == "" || msg.Bucket == "" {
		return msg, errors.New("cleanup message without bucket or key")
	}
	return msg, nil
}

// ProcessCleanup removes the blob. An already missing object counts as done.
func ProcessCleanup(ctx context.Context, store storage.Store, msg CleanupMessage) error {
	err := store.RemoveObject(ctx, msg.Bucket, msg.Key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil
	}
	return err
}
