package task

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"Next_Express/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	bodies [][]byte
	err    error
}

func (p *capturePublisher) PublishTask(ctx context.Context, body []byte) error {
	p.bodies = append(p.bodies, body)
	return p.err
}

func TestEnqueueCleanup(t *testing.T) {
	pub := &capturePublisher{}
	q := NewQueuePublisher(func() (Publisher, error) { return pub, nil })
	q.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, q.EnqueueCleanup(context.Background(), "bkt", "files/x", "file deleted"))
	require.Len(t, pub.bodies, 1)

	msg, err := DecodeCleanupMessage(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, CleanupMessage{
		Bucket:     "bkt",
		Key:        "files/x",
		Reason:     "file deleted",
		EnqueuedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, msg)
}

func TestEnqueueCleanupBrokerDown(t *testing.T) {
	q := NewQueuePublisher(func() (Publisher, error) { return nil, errors.New("dial refused") })
	assert.Error(t, q.EnqueueCleanup(context.Background(), "bkt", "k", "r"))
}

func TestDecodeCleanupMessageRejectsIncomplete(t *testing.T) {
	_, err := DecodeCleanupMessage([]byte(`{"bucket":"b"}`))
	assert.Error(t, err)
	_, err = DecodeCleanupMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestProcessCleanup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore("s", "http://localhost")
	require.NoError(t, store.PutObject(ctx, "b", "files/a", bytes.NewReader([]byte("a")), 1, storage.PutOptions{}))

	require.NoError(t, ProcessCleanup(ctx, store, CleanupMessage{Bucket: "b", Key: "files/a"}))
	_, _, err := store.GetObject(ctx, "b", "files/a")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	// already gone is success
	assert.NoError(t, ProcessCleanup(ctx, store, CleanupMessage{Bucket: "b", Key: "files/a"}))
}
