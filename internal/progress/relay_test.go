package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayOrdering(t *testing.T) {
	r := NewRelay()
	r.Push(CheckingTable("a"))
	r.Push(CheckingTable("b"))
	r.Push(CheckingTable("c"))

	for _, want := range []string{"a", "b", "c"} {
		e, ok, done := r.TryPop()
		require.True(t, ok)
		require.False(t, done)
		assert.Equal(t, want, e.TableName)
	}

	_, ok, done := r.TryPop()
	assert.False(t, ok)
	assert.False(t, done)
}

func TestRelayDrainsAfterClose(t *testing.T) {
	r := NewRelay()
	r.Push(TableComplete("x", 2))
	r.Close()

	e, ok, done := r.TryPop()
	require.True(t, ok)
	assert.False(t, done)
	assert.Equal(t, EventTableComplete, e.Status)

	_, ok, done = r.TryPop()
	assert.False(t, ok)
	assert.True(t, done)

	// pushes after close are dropped
	r.Push(CheckingTable("late"))
	assert.Zero(t, r.Len())
}

func TestForwardDeliversAndStops(t *testing.T) {
	r := NewRelay()
	go func() {
		for i := 0; i < 5; i++ {
			r.Push(Checked(i+1, 5, false))
		}
		r.Close()
	}()

	var got []Event
	err := r.Forward(context.Background(), time.Millisecond, time.Minute, func(e Event) {
		got = append(got, e)
	})
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, 1, got[0].Current)
	assert.Equal(t, 5, got[4].Current)
}

func TestForwardHeartbeat(t *testing.T) {
	r := NewRelay()
	go func() {
		time.Sleep(50 * time.Millisecond)
		r.Close()
	}()

	var beats int
	err := r.Forward(context.Background(), time.Millisecond, 10*time.Millisecond, func(e Event) {
		if e.Status == EventHeartbeat {
			beats++
		}
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, beats, 1)
}

func TestForwardContextCancel(t *testing.T) {
	r := NewRelay()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Forward(ctx, time.Millisecond, time.Minute, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkNilSafe(t *testing.T) {
	var s Sink
	assert.NotPanics(t, func() { s.Emit(Heartbeat()) })
}
