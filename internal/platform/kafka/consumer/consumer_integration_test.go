//go:build integration

package consumer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/platform/kafka/consumer"
	"doceo/internal/platform/kafka/producer"
	"doceo/pkg/testutil/containers"
)

type ConsumerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestConsumerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ConsumerIntegrationSuite))
}

func (s *ConsumerIntegrationSuite) SetupSuite() {
	s.kafka = containers.Kafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ConsumerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

// collector gathers handled messages for assertions.
type collector struct {
	mu   sync.Mutex
	msgs []*consumer.Message
}

func (c *collector) handle(_ context.Context, msg *consumer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *collector) snapshot() []*consumer.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*consumer.Message(nil), c.msgs...)
}

func (s *ConsumerIntegrationSuite) startConsumer(group, topic string, handler consumer.Handler) *consumer.Consumer {
	s.T().Helper()
	cons, err := consumer.New(consumer.Config{
		Brokers:         s.kafka.Brokers,
		GroupID:         group,
		AutoOffsetReset: "earliest",
	}, []string{topic}, handler, nil)
	s.Require().NoError(err)
	cons.Start()
	return cons
}

func (s *ConsumerIntegrationSuite) produceEnvelope(ctx context.Context, topic string, id uint64) {
	s.T().Helper()
	value, err := json.Marshal(ledgerevents.Envelope{
		ID:   id,
		Type: ledgerevents.EventCredentialStored,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("ledger"),
		Value: value,
	}))
}

// A single stream key puts every envelope on one partition, so the
// consumer must observe IDs in publish order.
func (s *ConsumerIntegrationSuite) TestConsumerDeliversInOrder() {
	ctx := context.Background()
	topic := "consumer-it-order"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	for id := uint64(1); id <= 3; id++ {
		s.produceEnvelope(ctx, topic, id)
	}

	var got collector
	cons := s.startConsumer("consumer-it-order-group", topic, consumer.HandlerFunc(got.handle))
	defer cons.Close() //nolint:errcheck // test teardown

	s.Eventually(func() bool {
		return len(got.snapshot()) >= 3
	}, 10*time.Second, 100*time.Millisecond)

	var ids []uint64
	for _, msg := range got.snapshot()[:3] {
		var env ledgerevents.Envelope
		s.Require().NoError(json.Unmarshal(msg.Value, &env))
		ids = append(ids, env.ID)
	}
	s.Equal([]uint64{1, 2, 3}, ids)
}

func (s *ConsumerIntegrationSuite) TestConsumerExposesHeaders() {
	ctx := context.Background()
	topic := "consumer-it-headers"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("ledger"),
		Value: []byte(`{}`),
		Headers: map[string]string{
			"event_type":       string(ledgerevents.EventVerifierAdded),
			"contract_version": ledgerevents.ContractVersion,
		},
	}))

	var got collector
	cons := s.startConsumer("consumer-it-headers-group", topic, consumer.HandlerFunc(got.handle))
	defer cons.Close() //nolint:errcheck // test teardown

	s.Eventually(func() bool {
		return len(got.snapshot()) >= 1
	}, 10*time.Second, 100*time.Millisecond)

	msg := got.snapshot()[0]
	s.Equal(string(ledgerevents.EventVerifierAdded), msg.Headers["event_type"])
	s.Equal(ledgerevents.ContractVersion, msg.Headers["contract_version"])
}

// A rejected message must come back: the offset commit only happens after
// the handler accepts, which is what lets the relay promise at-least-once.
func (s *ConsumerIntegrationSuite) TestRejectedMessageIsRedelivered() {
	ctx := context.Background()
	topic := "consumer-it-redeliver"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))
	s.produceEnvelope(ctx, topic, 42)

	group := fmt.Sprintf("consumer-it-redeliver-group-%d", time.Now().UnixNano())

	var rejections atomic.Int32
	rejecting := consumer.HandlerFunc(func(context.Context, *consumer.Message) error {
		rejections.Add(1)
		return fmt.Errorf("not ready")
	})
	first := s.startConsumer(group, topic, rejecting)

	s.Eventually(func() bool {
		return rejections.Load() >= 1
	}, 10*time.Second, 100*time.Millisecond)
	s.Require().NoError(first.Close())

	var got collector
	second := s.startConsumer(group, topic, consumer.HandlerFunc(got.handle))
	defer second.Close() //nolint:errcheck // test teardown

	s.Eventually(func() bool {
		return len(got.snapshot()) >= 1
	}, 10*time.Second, 100*time.Millisecond)

	var env ledgerevents.Envelope
	s.Require().NoError(json.Unmarshal(got.snapshot()[0].Value, &env))
	s.Equal(uint64(42), env.ID)
}

func (s *ConsumerIntegrationSuite) TestConsumerHealthy() {
	var got collector
	cons := s.startConsumer("consumer-it-healthy-group", "consumer-it-healthy", consumer.HandlerFunc(got.handle))
	defer cons.Close() //nolint:errcheck // test teardown

	s.True(cons.Healthy(context.Background()))
}
