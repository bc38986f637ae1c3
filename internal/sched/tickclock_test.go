package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickClock_Monotonic(t *testing.T) {
	c := NewTickClock()
	assert.Zero(t, c.Now())

	c.Advance(5 * time.Millisecond)
	c.Advance(-time.Second)
	assert.Equal(t, 5*time.Millisecond, c.Now())

	c.Set(time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, c.Now(), "Set never moves backwards")
	c.Set(time.Second)
	assert.Equal(t, time.Second, c.Now())
}

func TestTickClock_Start(t *testing.T) {
	c := NewTickClock()
	c.Start(time.Millisecond, 10*time.Millisecond)
	defer c.Stop()

	assert.Eventually(t, func() bool { return c.Now() >= 30*time.Millisecond }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, c.Count(), int64(3))
}

func TestMonotonicClock_Advances(t *testing.T) {
	c := NewMonotonicClock()
	first := c.Now()
	time.Sleep(time.Millisecond)
	assert.Greater(t, c.Now(), first)
}
