package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_ReadyBeforeFirstMark(t *testing.T) {
	d := NewDebouncer(time.Minute)
	ready, _ := d.Ready(time.Now())
	assert.True(t, ready)
}

func TestDebouncer_NotReadyImmediatelyAfterMark(t *testing.T) {
	d := NewDebouncer(time.Minute)
	now := time.Now()
	d.Mark(now)

	ready, since := d.Ready(now.Add(time.Second))
	assert.False(t, ready)
	assert.Equal(t, time.Second, since)
}

func TestDebouncer_ReadyAfterIntervalElapses(t *testing.T) {
	d := NewDebouncer(time.Minute)
	now := time.Now()
	d.Mark(now)

	ready, _ := d.Ready(now.Add(time.Minute))
	assert.True(t, ready)
}

func TestDebouncer_ZeroIntervalAlwaysReady(t *testing.T) {
	d := NewDebouncer(0)
	d.MarkNow()
	ready, _ := d.ReadyNow()
	assert.True(t, ready)
}

func TestDebouncer_ResetClearsLastMark(t *testing.T) {
	d := NewDebouncer(time.Minute)
	d.MarkNow()
	d.Reset()

	ready, _ := d.ReadyNow()
	assert.True(t, ready)
	assert.True(t, d.Last().IsZero())
}

func TestDebouncer_SetIntervalChangesWindow(t *testing.T) {
	d := NewDebouncer(time.Hour)
	now := time.Now()
	d.Mark(now)
	d.SetInterval(time.Millisecond)

	ready, _ := d.Ready(now.Add(time.Second))
	assert.True(t, ready)
	assert.Equal(t, time.Millisecond, d.Interval())
}
