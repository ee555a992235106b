package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("fixed clock does not move on its own", func(t *testing.T) {
		c := NewFakeClock(start)
		assert.Equal(t, start, c.Now())
		assert.Equal(t, start, c.Now())

		c.Advance(time.Hour)
		assert.Equal(t, start.Add(time.Hour), c.Now())

		c.Set(start)
		assert.Equal(t, start, c.Now())
	})

	t.Run("ticking clock advances per read", func(t *testing.T) {
		c := NewTickingClock(start, time.Millisecond)
		assert.Equal(t, start, c.Now())
		assert.Equal(t, start.Add(time.Millisecond), c.Now())
	})
}

func TestRealClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, RealClock{}.Now().Location())
}
