package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kaetram/mobengine/internal/game/timer"
)

func TestRealTimer_Fires(t *testing.T) {
	var called atomic.Int32
	timer.Real{}.After(20*time.Millisecond, func() {
		called.Add(1)
	})
	time.Sleep(60 * time.Millisecond)
	if called.Load() != 1 {
		t.Fatalf("expected callback called once, got %d", called.Load())
	}
}

func TestRealTimer_Stop_PreventsCallback(t *testing.T) {
	var called atomic.Int32
	h := timer.Real{}.After(50*time.Millisecond, func() {
		called.Add(1)
	})
	h.Stop()
	time.Sleep(80 * time.Millisecond)
	if called.Load() != 0 {
		t.Fatalf("expected callback not called, got %d", called.Load())
	}
}

func TestRealTimer_StopIdempotent(t *testing.T) {
	h := timer.Real{}.After(50*time.Millisecond, func() {})
	h.Stop()
	h.Stop()
	timer.Stop(h)
	timer.Stop(nil)
}

func TestRealInterval_RepeatsUntilStopped(t *testing.T) {
	var called atomic.Int32
	h := timer.Real{}.Every(10*time.Millisecond, func() {
		called.Add(1)
	})
	time.Sleep(55 * time.Millisecond)
	h.Stop()
	seen := called.Load()
	assert.GreaterOrEqual(t, seen, int32(2))
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, seen, called.Load())
	h.Stop()
}

func TestManual_AfterFiresOnceAtDeadline(t *testing.T) {
	m := timer.NewManual()
	fired := 0
	m.After(400*time.Millisecond, func() { fired++ })

	m.Advance(399 * time.Millisecond)
	assert.Equal(t, 0, fired)
	m.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	m.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_EveryFiresPerPeriod(t *testing.T) {
	m := timer.NewManual()
	fired := 0
	h := m.Every(15*time.Second, func() { fired++ })

	m.Advance(45 * time.Second)
	assert.Equal(t, 3, fired)

	h.Stop()
	m.Advance(time.Minute)
	assert.Equal(t, 3, fired)
}

func TestManual_CallbackMayStopItself(t *testing.T) {
	m := timer.NewManual()
	fired := 0
	var h timer.Handle
	h = m.Every(time.Second, func() {
		fired++
		h.Stop()
	})
	m.Advance(10 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := timer.NewManual()
	var order []string
	m.After(2*time.Second, func() { order = append(order, "late") })
	m.After(time.Second, func() { order = append(order, "early") })
	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, 3*time.Second, m.Now())
}
