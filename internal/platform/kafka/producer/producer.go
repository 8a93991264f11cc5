// Package producer wraps the franz-go client for the ledger's event stream.
// Publishing is synchronous: the relay needs the broker's acknowledgement
// before it may mark an event published, so there is no async path here.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const closeFlushTimeout = 30 * time.Second

// Message is one record to publish.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Config holds producer configuration. Brokers is a comma-separated list.
type Config struct {
	Brokers         string
	ClientID        string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// Producer publishes messages and reports broker connectivity.
type Producer struct {
	client    *kgo.Client
	logger    *slog.Logger
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a Kafka producer. Acks defaults to all in-sync replicas;
// anything weaker lets an acked event disappear with a failed leader.
func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "doceo-ledger"
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(acksFor(cfg.Acks)),
		kgo.RecordRetries(cfg.Retries),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{client: client, logger: logger}, nil
}

func acksFor(acks string) kgo.Acks {
	switch acks {
	case "0":
		return kgo.NoAck()
	case "1":
		return kgo.LeaderAck()
	default:
		return kgo.AllISRAcks()
	}
}

// Produce sends a message and waits for the delivery report.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}

	record := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}
	return nil
}

// Healthy reports whether the brokers answer a ping.
func (p *Producer) Healthy(ctx context.Context) bool {
	return !p.closed.Load() && p.client.Ping(ctx) == nil
}

// Close flushes buffered records and releases the client. Safe to call
// more than once.
func (p *Producer) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
		defer cancel()
		if err := p.client.Flush(ctx); err != nil && p.logger != nil {
			p.logger.Warn("kafka producer closed with unflushed messages",
				"error", err,
			)
		}
		p.client.Close()
	})
	return nil
}
