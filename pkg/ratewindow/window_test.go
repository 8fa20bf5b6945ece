package ratewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance virtual time without sleeping.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWindow(t *testing.T, max int, span time.Duration) (*Window, *fakeClock) {
	t.Helper()
	w, err := New(Params{MaxActions: max, Window: span})
	require.NoError(t, err)
	clk := newFakeClock()
	w.now = clk.Now
	return w, clk
}

func Test_Params_Validation(t *testing.T) {
	_, err := New(Params{MaxActions: 0, Window: time.Second})
	assert.Error(t, err)

	_, err = New(Params{MaxActions: 3, Window: 0})
	assert.Error(t, err)

	_, err = New(Params{MaxActions: 3, Window: time.Second})
	assert.NoError(t, err)
}

func Test_Allows_Until_Window_Full(t *testing.T) {
	w, _ := newTestWindow(t, 3, time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, w.Check().Allowed)
		w.Record()
	}
	assert.False(t, w.Check().Allowed)
}

func Test_Window_Expiry_Reopens(t *testing.T) {
	w, clk := newTestWindow(t, 3, time.Second)

	w.Record()
	w.Record()
	w.Record()
	assert.False(t, w.Check().Allowed)

	clk.Advance(1100 * time.Millisecond)
	assert.True(t, w.Check().Allowed)
}

func Test_Sliding_Eviction(t *testing.T) {
	w, clk := newTestWindow(t, 3, time.Second)

	w.Record() // t=0
	clk.Advance(400 * time.Millisecond)
	w.Record() // t=400
	clk.Advance(400 * time.Millisecond)
	w.Record() // t=800

	assert.False(t, w.Check().Allowed, "three actions inside the window")

	clk.Advance(300 * time.Millisecond) // t=1100, the t=0 entry ages out
	assert.True(t, w.Check().Allowed)
}

func Test_RetryAfter_Bounds(t *testing.T) {
	w, clk := newTestWindow(t, 2, time.Second)

	w.Record()
	clk.Advance(250 * time.Millisecond)
	w.Record()

	res := w.Check()
	require.False(t, res.Allowed)
	// Oldest stamp is 250ms old: retry once it leaves the window.
	assert.Equal(t, 750*time.Millisecond, res.RetryAfter)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Second)
}

func Test_RetryAfter_Stays_Positive_Near_Boundary(t *testing.T) {
	w, clk := newTestWindow(t, 1, time.Second)

	w.Record()
	clk.Advance(999 * time.Millisecond)

	res := w.Check()
	require.False(t, res.Allowed)
	assert.Equal(t, time.Millisecond, res.RetryAfter)

	clk.Advance(time.Millisecond)
	assert.True(t, w.Check().Allowed)
}

func Test_Reset_Clears_History(t *testing.T) {
	w, _ := newTestWindow(t, 1, time.Minute)

	w.Record()
	assert.False(t, w.Check().Allowed)

	w.Reset()
	assert.True(t, w.Check().Allowed)
}

func Test_Independent_Instances(t *testing.T) {
	send, _ := newTestWindow(t, 1, time.Second)
	join, _ := newTestWindow(t, 1, time.Second)

	send.Record()
	assert.False(t, send.Check().Allowed)
	assert.True(t, join.Check().Allowed, "limiters must not share state")
}
