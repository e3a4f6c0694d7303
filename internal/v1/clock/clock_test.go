package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock_Monotonic(t *testing.T) {
	c := New()
	first := c.NowMillis()
	second := c.NowMillis()
	assert.GreaterOrEqual(t, second, first)
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	f := NewFake(1000)
	assert.Equal(t, int64(1000), f.NowMillis())

	f.Advance(10 * time.Second)
	assert.Equal(t, int64(11000), f.NowMillis())

	f.Set(0)
	assert.Equal(t, int64(0), f.NowMillis())
}
