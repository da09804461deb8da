package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToMax(t *testing.T) {
	t.Parallel()

	l := New("test-secret", 5, time.Minute)

	for i := 1; i <= 5; i++ {
		allowed, remaining := l.Check("203.0.113.7")
		require.True(t, allowed, "request %d should be allowed", i)
		assert.Equal(t, 5-i, remaining)
	}

	allowed, remaining := l.Check("203.0.113.7")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	// Still rejected on repeat.
	allowed, _ = l.Check("203.0.113.7")
	assert.False(t, allowed)
}

func TestLimiterIsolatesClients(t *testing.T) {
	t.Parallel()

	l := New("test-secret", 2, time.Minute)

	l.Check("203.0.113.7")
	l.Check("203.0.113.7")
	allowed, _ := l.Check("203.0.113.7")
	require.False(t, allowed)

	allowed, remaining := l.Check("203.0.113.8")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestLimiterWindowExpiry(t *testing.T) {
	t.Parallel()

	l := New("test-secret", 1, 50*time.Millisecond)

	allowed, _ := l.Check("203.0.113.7")
	require.True(t, allowed)
	allowed, _ = l.Check("203.0.113.7")
	require.False(t, allowed)

	time.Sleep(80 * time.Millisecond)

	allowed, remaining := l.Check("203.0.113.7")
	assert.True(t, allowed, "counter should reset after the window elapses")
	assert.Equal(t, 0, remaining)
}

func TestLimiterNilAllowsAll(t *testing.T) {
	t.Parallel()

	var l *Limiter
	for i := 0; i < 10; i++ {
		allowed, _ := l.Check("203.0.113.7")
		assert.True(t, allowed)
	}
}

func TestLimiterKeyIsSaltedHash(t *testing.T) {
	t.Parallel()

	a := New("secret-a", 5, time.Minute)
	b := New("secret-b", 5, time.Minute)

	assert.NotEqual(t, a.key("203.0.113.7"), b.key("203.0.113.7"))
	assert.Len(t, a.key("203.0.113.7"), 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", a.key("203.0.113.7"))
}

func ExampleLimiter_Check() {
	l := New("secret", 2, time.Minute)
	for i := 0; i < 3; i++ {
		allowed, remaining := l.Check("198.51.100.1")
		fmt.Println(allowed, remaining)
	}
	// Output:
	// true 1
	// true 0
	// false 0
}
