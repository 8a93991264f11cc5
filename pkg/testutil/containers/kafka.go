//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaContainer is a running broker plus the helpers the event relay tests
// need: topic setup and verification consumers.
type KafkaContainer struct {
	Container testcontainers.Container
	Brokers   string
}

// NewKafkaContainer boots a Redpanda broker. Redpanda speaks the Kafka
// protocol and comes up in a fraction of the time a JVM broker takes.
// No cleanup is registered; the container is shared for the whole test
// process and Ryuk reaps it on exit, like the Postgres one.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := kafka.Run(ctx,
		"redpandadata/redpanda:v24.2.4",
		kafka.WithClusterID("ledger-test-cluster"),
	)
	if err != nil {
		t.Fatalf("start redpanda: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("resolve redpanda brokers: %v", err)
	}

	return &KafkaContainer{
		Container: container,
		Brokers:   brokers[0],
	}
}

// CreateTopic creates one topic, waiting until the broker acknowledges it.
func (k *KafkaContainer) CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(k.Brokers))
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = kadm.NewClient(client).CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	return err
}

// NewConsumer opens a consumer positioned at the start of the given topics.
// Commits are disabled; verification consumers are throwaway.
func (k *KafkaContainer) NewConsumer(ctx context.Context, groupID string, topics ...string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(k.Brokers),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
}

// drain polls the subscription, feeding records to visit in delivery order
// until visit reports done, the client closes, or ctx expires.
func drain(ctx context.Context, client *kgo.Client, visit func(*kgo.Record) bool) {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}

		done := false
		fetches.EachRecord(func(r *kgo.Record) {
			if !done {
				done = visit(r)
			}
		})
		if done {
			return
		}
	}
}

// WaitForMessages collects the first n records from the subscription in
// delivery order, or fewer if the timeout expires first.
func (k *KafkaContainer) WaitForMessages(ctx context.Context, client *kgo.Client, timeout time.Duration, n int) []*kgo.Record {
	if n <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records := make([]*kgo.Record, 0, n)
	drain(ctx, client, func(r *kgo.Record) bool {
		records = append(records, r)
		return len(records) >= n
	})
	return records
}

// WaitForMessage waits for a record matching the predicate within the
// timeout. Returns nil if none arrives in time.
func (k *KafkaContainer) WaitForMessage(ctx context.Context, client *kgo.Client, timeout time.Duration, match func(*kgo.Record) bool) *kgo.Record {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var found *kgo.Record
	drain(ctx, client, func(r *kgo.Record) bool {
		if match(r) {
			found = r
		}
		return found != nil
	})
	return found
}
