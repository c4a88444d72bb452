package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeClock_AfterFuncFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(2*time.Second, func() { fired++ })

	c.Advance(1999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.PendingCount())

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.PendingCount())

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot timers fire once")
}

func TestFakeClock_DeadlineOrderAndNow(t *testing.T) {
	c := Fake(epoch)
	var order []string
	var seen []time.Time
	c.AfterFunc(3*time.Second, func() { order = append(order, "late"); seen = append(seen, c.Now()) })
	c.AfterFunc(1*time.Second, func() { order = append(order, "early"); seen = append(seen, c.Now()) })

	c.Advance(5 * time.Second)

	require.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, epoch.Add(time.Second), seen[0])
	assert.Equal(t, epoch.Add(3*time.Second), seen[1])
	assert.Equal(t, epoch.Add(5*time.Second), c.Now())
}

func TestFakeClock_StopPreventsFiring(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeClock_NonPositiveDelayRunsImmediately(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(0, func() { fired = true })
	assert.True(t, fired)
	assert.False(t, tm.Stop())
}

func TestFakeClock_Ticker(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Second)

	c.Advance(time.Second)
	select {
	case got := <-tk.C:
		assert.Equal(t, epoch.Add(time.Second), got)
	default:
		t.Fatal("expected a tick")
	}

	tk.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-tk.C:
		t.Fatal("stopped ticker must not tick")
	default:
	}
}

func TestFakeClock_TickerPanicsOnZero(t *testing.T) {
	require.Panics(t, func() { Fake(epoch).NewTicker(0) })
}
