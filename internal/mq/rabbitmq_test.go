package mq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTopologyRetryDeadLettersToMainQueue(t *testing.T) {
	specs := topology()
	assert.Len(t, specs, 3)

	var retry queueSpec
	for _, s := range specs {
		if s.queue == QueueRetry {
			retry = s
		}
	}
	assert.Equal(t, ExchangeCleanup, retry.args["x-dead-letter-exchange"])
	assert.Equal(t, RoutingCleanup, retry.args["x-dead-letter-routing-key"])
}

func TestExpiration(t *testing.T) {
	assert.Equal(t, "30000", expiration(30*time.Second))
	assert.Equal(t, "0", expiration(0))
}

func TestClosePublisherWithoutConnection(t *testing.T) {
	assert.NotPanics(t, ClosePublisher)
}
