package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffDoubles(t *testing.T) {
	b := NewExponentialBackoff(1*time.Second, 30*time.Second)

	assert.Equal(t, 1*time.Second, b.NextDelay())
	assert.Equal(t, 2*time.Second, b.NextDelay())
	assert.Equal(t, 4*time.Second, b.NextDelay())
	assert.Equal(t, 8*time.Second, b.NextDelay())
}

func TestExponentialBackoffCap(t *testing.T) {
	b := NewExponentialBackoff(10*time.Second, 15*time.Second)

	assert.Equal(t, 10*time.Second, b.NextDelay())
	assert.Equal(t, 15*time.Second, b.NextDelay())
	assert.Equal(t, 15*time.Second, b.NextDelay())
}

func TestExponentialBackoffReset(t *testing.T) {
	b := NewExponentialBackoff(1*time.Second, 30*time.Second)

	b.NextDelay()
	b.NextDelay()
	b.Reset()

	assert.Equal(t, 1*time.Second, b.NextDelay())
}

func TestExponentialBackoffDefaults(t *testing.T) {
	b := NewExponentialBackoff(0, 0)

	assert.Equal(t, 1*time.Second, b.NextDelay())
	assert.Equal(t, 2*time.Second, b.NextDelay())
}
