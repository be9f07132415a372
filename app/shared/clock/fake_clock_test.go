package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	var fired []string
	c.AfterFunc(2*time.Minute, func() { fired = append(fired, "second") })
	c.AfterFunc(time.Minute, func() { fired = append(fired, "first") })
	late := c.AfterFunc(time.Hour, func() { fired = append(fired, "late") })

	assert.Equal(t, 3, c.Pending())

	c.Advance(5 * time.Minute)
	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, start.Add(5*time.Minute), c.Now())
	assert.Equal(t, 1, c.Pending())

	assert.True(t, late.Stop())
	assert.False(t, late.Stop(), "stopping twice reports false")

	c.Advance(2 * time.Hour)
	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, 0, c.Pending())
}

var (
	_ Clock = RealClock{}
	_ Clock = (*FakeClock)(nil)
)
