package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func TestFakeClock_AdvanceFiresDueTimers(t *testing.T) {
	c := NewFakeClock(epoch)
	var fired []string

	c.AfterFunc(5*time.Second, func() { fired = append(fired, "five") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "two") })

	c.Advance(time.Second)
	assert.Empty(t, fired)
	assert.Equal(t, 2, c.Pending())

	c.Advance(4 * time.Second)
	assert.Equal(t, []string{"two", "five"}, fired)
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, epoch.Add(5*time.Second), c.Now())
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock(epoch)
	fired := false

	timer := c.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.Equal(t, 1, c.ScheduledCount())
}

func TestFakeClock_TimerScheduledFromCallback(t *testing.T) {
	c := NewFakeClock(epoch)
	count := 0

	var schedule func()
	schedule = func() {
		count++
		c.AfterFunc(5*time.Second, schedule)
	}
	c.AfterFunc(5*time.Second, schedule)

	c.Advance(16 * time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second, 5 * time.Second}, c.Scheduled)
}

func TestFakeClock_StopAfterFire(t *testing.T) {
	c := NewFakeClock(epoch)
	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, timer.Stop())
}
