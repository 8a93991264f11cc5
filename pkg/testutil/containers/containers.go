//go:build integration

// Package containers provides testcontainers-based fixtures for integration
// tests. Containers are shared package-wide: the first suite to ask for one
// pays the startup cost, later suites reuse it, and Ryuk reaps everything
// when the test process exits.
package containers

import (
	"sync"
	"testing"
)

var (
	mu             sync.Mutex
	sharedPostgres *PostgresContainer
	sharedKafka    *KafkaContainer
)

// Postgres returns the shared Postgres container, starting it on first use
// with the ledger migrations applied.
func Postgres(t *testing.T) *PostgresContainer {
	t.Helper()

	mu.Lock()
	defer mu.Unlock()

	if sharedPostgres == nil {
		sharedPostgres = NewPostgresContainer(t)
	}
	return sharedPostgres
}

// Kafka returns the shared Kafka container, starting it on first use.
func Kafka(t *testing.T) *KafkaContainer {
	t.Helper()

	mu.Lock()
	defer mu.Unlock()

	if sharedKafka == nil {
		sharedKafka = NewKafkaContainer(t)
	}
	return sharedKafka
}
