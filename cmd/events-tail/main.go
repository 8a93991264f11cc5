// Package main tails the ledger event stream from Kafka and prints each
// envelope as it arrives. Useful for watching a running ledger during
// development and for spotting relay ordering problems by hand.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/platform/kafka/consumer"
)

func main() {
	var (
		brokers = flag.String("brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "Comma-separated Kafka brokers")
		topic   = flag.String("topic", envOr("KAFKA_EVENTS_TOPIC", "ledger.events.v1"), "Topic carrying ledger events")
		group   = flag.String("group", fmt.Sprintf("events-tail-%d", os.Getpid()), "Consumer group ID")
		from    = flag.String("from", "earliest", "Where to start when the group has no offsets: earliest or latest")
		raw     = flag.Bool("json", false, "Print raw envelope JSON instead of formatted lines")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Envelope IDs increase by exactly one per event, so the tail can flag
	// gaps and duplicate deliveries as they happen.
	var lastID uint64
	handler := consumer.HandlerFunc(func(_ context.Context, msg *consumer.Message) error {
		var env ledgerevents.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			// Commit anyway; a poison message should not wedge the tail.
			fmt.Fprintf(os.Stderr, "undecodable event at %s[%d]@%d: %v\n",
				msg.Topic, msg.Partition, msg.Offset, err)
			return nil
		}

		switch {
		case lastID != 0 && env.ID <= lastID:
			fmt.Fprintf(os.Stderr, "duplicate delivery: envelope %d after %d\n", env.ID, lastID)
		case lastID != 0 && env.ID != lastID+1:
			fmt.Fprintf(os.Stderr, "gap: envelope %d follows %d\n", env.ID, lastID)
		}
		if env.ID > lastID {
			lastID = env.ID
		}

		if *raw {
			fmt.Printf("%s\n", msg.Value)
			return nil
		}
		fmt.Printf("%s  #%-6d %-22s tick=%-10d %s\n",
			msg.Timestamp.UTC().Format(time.RFC3339), env.ID, env.Type, env.Tick, env.Payload)
		return nil
	})

	c, err := consumer.New(consumer.Config{
		Brokers:         *brokers,
		GroupID:         *group,
		ClientID:        "doceo-events-tail",
		AutoOffsetReset: *from,
	}, []string{*topic}, handler, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consumer init failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "tailing %s on %s (group %s), Ctrl+C to stop\n", *topic, *brokers, *group)
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	_ = c.Close() //nolint:errcheck // process is exiting
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
