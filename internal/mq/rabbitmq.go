package mq

import (
	"Next_Express/config"
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeCleanup = "cleanup.exchange"
	ExchangeRetry   = "cleanup.retry.exchange"
	ExchangeDLQ     = "cleanup.dlq.exchange"

	QueueCleanup = "cleanup.queue"
	QueueRetry   = "cleanup.retry.queue"
	QueueDLQ     = "cleanup.dlq.queue"

	RoutingCleanup = "cleanup"
	RoutingRetry   = "cleanup.retry"
	RoutingDLQ     = "cleanup.dlq"
)

type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

// Enabled reports whether a broker is configured.
func Enabled() bool {
	return config.AppConfig.RabbitMQURL != ""
}

func Dial() (*Client, error) {
	conn, err := amqp.Dial(config.AppConfig.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

// GetPublisher returns the shared publishing client, redialing a closed one.
func GetPublisher() (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil {
		if !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
			return publisher, nil
		}
		publisher.Close()
		publisher = nil
	}
	client, err := Dial()
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

// ClosePublisher closes the shared client on shutdown.
func ClosePublisher() {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	publisher.Close()
	publisher = nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

type queueSpec struct {
	queue, exchange, routing string
	args                     amqp.Table
}

// topology: retry messages wait out their TTL, then dead-letter back to the main queue.
func topology() []queueSpec {
	return []queueSpec{
		{queue: QueueCleanup, exchange: ExchangeCleanup, routing: RoutingCleanup},
		{queue: QueueRetry, exchange: ExchangeRetry, routing: RoutingRetry, args: amqp.Table{
			"x-dead-letter-exchange":    ExchangeCleanup,
			"x-dead-letter-routing-key": RoutingCleanup,
		}},
		{queue: QueueDLQ, exchange: ExchangeDLQ, routing: RoutingDLQ},
	}
}

func (c *Client) DeclareTopology() error {
	for _, spec := range topology() {
		if err := c.Channel.ExchangeDeclare(spec.exchange, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", spec.exchange, err)
		}
		if _, err := c.Channel.QueueDeclare(spec.queue, true, false, false, false, spec.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", spec.queue, err)
		}
		if err := c.Channel.QueueBind(spec.queue, spec.routing, spec.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", spec.queue, err)
		}
	}
	return nil
}

func (c *Client) PublishTask(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeCleanup, RoutingCleanup, body, "")
}

func (c *Client) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	return c.publish(ctx, ExchangeRetry, RoutingRetry, body, expiration(delay))
}

func (c *Client) PublishDLQ(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeDLQ, RoutingDLQ, body, "")
}

// expiration renders a per-message TTL the way AMQP expects it.
func expiration(delay time.Duration) string {
	return fmt.Sprintf("%d", delay.Milliseconds())
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, ttl string) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Expiration:   ttl,
	}
	return c.Channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}
