// Package outbox ships the ledger event log to Kafka. Events are written to
// the store in the same transaction as the state change that caused them;
// the relay polls for unpublished rows and forwards them, so a broker outage
// never loses or reorders an event.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	"doceo/internal/platform/kafka/producer"
)

// streamKey partitions every ledger event onto the same Kafka partition.
// Consumers rely on envelope IDs arriving in order; a single key is what
// makes the broker preserve it.
const streamKey = "credential-ledger"

const drainTimeout = 10 * time.Second

// Store is the slice of the ledger store the relay reads and updates.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error)
	MarkPublished(ctx context.Context, eventID uint64, at time.Time) error
	CountPending(ctx context.Context) (int, error)
}

// Producer delivers one message to the broker, blocking until acknowledged.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Relay polls the event log and publishes pending events in ID order.
type Relay struct {
	store        Store
	producer     Producer
	topic        string
	batchSize    int
	pollInterval time.Duration
	metrics      *Metrics
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the Relay.
type Option func(*Relay)

// WithTopic sets the Kafka topic events are published to.
func WithTopic(topic string) Option {
	return func(r *Relay) {
		r.topic = topic
	}
}

// WithBatchSize sets the maximum number of events fetched per round.
func WithBatchSize(size int) Option {
	return func(r *Relay) {
		r.batchSize = size
	}
}

// WithPollInterval sets the wait between successful rounds.
func WithPollInterval(interval time.Duration) Option {
	return func(r *Relay) {
		r.pollInterval = interval
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// New creates an event relay. Call Start to begin polling.
func New(store Store, prod Producer, opts ...Option) *Relay {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Relay{
		store:        store,
		producer:     prod,
		topic:        "ledger.events.v1",
		batchSize:    100,
		pollInterval: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start begins the polling loop in a background goroutine.
func (r *Relay) Start() {
	r.wg.Add(1)
	go r.run()
}

// run is the main polling loop. Failed rounds back off exponentially so a
// broker outage does not turn into a hot retry loop; a successful round
// resets the schedule to the base interval.
func (r *Relay) run() {
	defer r.wg.Done()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = r.pollInterval
	retry.MaxElapsedTime = 0

	timer := time.NewTimer(r.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.drain()
			return
		case <-timer.C:
		}

		if err := r.relayPending(r.ctx); err != nil {
			wait := retry.NextBackOff()
			if r.logger != nil {
				r.logger.Error("event relay round failed",
					"error", err,
					"retry_in", wait,
				)
			}
			timer.Reset(wait)
			continue
		}

		retry.Reset()
		timer.Reset(r.pollInterval)
	}
}

// relayPending publishes one batch of pending events. The round stops at the
// first failure: later events must not reach the broker before an earlier one,
// so the suffix stays pending and the whole of it is retried next round.
func (r *Relay) relayPending(ctx context.Context) error {
	start := time.Now()

	events, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if r.metrics != nil {
		r.metrics.ObserveBatchSize(len(events))
	}

	for _, event := range events {
		if err := r.publish(ctx, event); err != nil {
			if r.metrics != nil {
				r.metrics.IncPublishFailures()
			}
			return fmt.Errorf("publish event %d: %w", event.ID, err)
		}

		if err := r.store.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			// The event reached the broker but stays pending, so the next
			// round re-publishes it. Consumers dedupe on envelope ID.
			return fmt.Errorf("mark event %d published: %w", event.ID, err)
		}

		if r.metrics != nil {
			r.metrics.IncPublished()
		}
	}

	if r.logger != nil {
		r.logger.Debug("relayed ledger events",
			"count", len(events),
			"last_id", events[len(events)-1].ID,
		)
	}
	if r.metrics != nil {
		r.metrics.ObserveRoundDuration(time.Since(start).Seconds())
	}

	return nil
}

// publish sends a single event envelope to Kafka.
func (r *Relay) publish(ctx context.Context, event *models.Event) error {
	value, err := json.Marshal(event.Envelope())
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := &producer.Message{
		Topic: r.topic,
		Key:   []byte(streamKey),
		Value: value,
		Headers: map[string]string{
			"event_type":       string(event.Type),
			"contract_version": ledgerevents.ContractVersion,
		},
	}

	start := time.Now()
	if err := r.producer.Produce(ctx, msg); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.ObservePublishDuration(time.Since(start).Seconds())
	}

	return nil
}

// drain publishes what it can during shutdown. Anything still pending when
// the timeout hits is picked up on the next process start.
func (r *Relay) drain() {
	if r.logger != nil {
		r.logger.Info("draining event relay")
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		pending, err := r.store.CountPending(ctx)
		if err != nil || pending == 0 {
			return
		}
		if err := r.relayPending(ctx); err != nil {
			if r.logger != nil {
				r.logger.Error("drain stopped with events pending",
					"pending", pending,
					"error", err,
				)
			}
			return
		}
	}
}

// Stop cancels the polling loop and waits for the drain to finish.
func (r *Relay) Stop(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshQueueDepth samples the pending-event count into the depth gauge.
// Call it on a timer from the process that owns the relay.
func (r *Relay) RefreshQueueDepth(ctx context.Context) error {
	if r.metrics == nil {
		return nil
	}

	pending, err := r.store.CountPending(ctx)
	if err != nil {
		return err
	}

	r.metrics.SetQueueDepth(pending)
	return nil
}
