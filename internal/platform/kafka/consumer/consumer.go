// Package consumer wraps a franz-go consumer group for the ledger's event
// stream. Commits are manual: a message is committed only after the handler
// accepts it, so a crash redelivers instead of dropping.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one received record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages. Returning an error skips the commit
// and the message is redelivered.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Config holds consumer configuration. Brokers is a comma-separated list.
type Config struct {
	Brokers         string
	GroupID         string
	ClientID        string
	AutoOffsetReset string
}

// Consumer runs a consumer group loop over the subscribed topics.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a consumer subscribed to the given topics. Offsets reset to
// the earliest record unless AutoOffsetReset says "latest".
func New(cfg Config, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer group ID not configured")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no topics to consume")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "doceo-ledger"
	}

	offset := kgo.NewOffset().AtStart()
	if cfg.AutoOffsetReset == "latest" {
		offset = kgo.NewOffset().AtEnd()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(offset),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		client:  client,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the consumption loop in a background goroutine.
func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.run()
}

func (c *Consumer) run() {
	defer c.wg.Done()

	for {
		fetches := c.client.PollFetches(c.ctx)
		if fetches.IsClientClosed() || c.ctx.Err() != nil {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if c.logger != nil {
				c.logger.Error("kafka fetch error",
					"topic", topic,
					"partition", partition,
					"error", err,
				)
			}
		})

		var done []*kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if err := c.handler.Handle(c.ctx, toMessage(r)); err != nil {
				if c.logger != nil {
					c.logger.Error("message handling failed, skipping commit",
						"topic", r.Topic,
						"partition", r.Partition,
						"offset", r.Offset,
						"error", err,
					)
				}
				return
			}
			done = append(done, r)
		})

		if len(done) > 0 {
			if err := c.client.CommitRecords(c.ctx, done...); err != nil && c.logger != nil {
				c.logger.Error("kafka commit failed", "error", err)
			}
		}
	}
}

func toMessage(r *kgo.Record) *Message {
	var headers map[string]string
	if len(r.Headers) > 0 {
		headers = make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}

// Healthy reports whether the brokers answer a ping.
func (c *Consumer) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx) == nil
}

// Close stops the consumption loop and releases the client.
func (c *Consumer) Close() error {
	c.cancel()
	c.wg.Wait()
	c.client.Close()
	return nil
}
