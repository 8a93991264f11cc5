package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAtFailureThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	for range 2 {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.False(t, change.Opened)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	// Further failures keep it open without re-reporting the transition.
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreakerSuccessResetsFailureRun(t *testing.T) {
	b := New("test", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback, "run was broken by the success")
	assert.False(t, change.Opened)
	assert.False(t, b.IsOpen())
}

func TestBreakerReclosesAfterSuccessRun(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerFailureWhileOpenRestartsSuccessRun(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	// The earlier success no longer counts toward re-closing.
	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
}
