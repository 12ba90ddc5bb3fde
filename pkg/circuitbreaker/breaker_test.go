package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("indexer", true, 3, time.Minute, time.Minute, nil)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())

	// third failure within the window trips the circuit
	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerResetsAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("indexer", true, 1, time.Minute, 10*time.Millisecond, nil)

	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreakerManualReset(t *testing.T) {
	cb := NewCircuitBreaker("domain", true, 1, time.Minute, time.Hour, nil)

	assert.True(t, cb.RecordFailure())
	cb.Reset()
	assert.False(t, cb.IsOpen())

	count, tripped, _ := cb.State()
	assert.Equal(t, 0, count)
	assert.False(t, tripped)
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker("indexer", false, 1, time.Minute, time.Minute, nil)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())
}
