package dashboard

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler fires timers only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	var rest []*manualTimer
	for _, timer := range s.timers {
		if timer.at <= s.now {
			due = append(due, timer)
		} else {
			rest = append(rest, timer)
		}
	}
	s.timers = rest
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, timer := range due {
		if !timer.stopped {
			timer.fn()
		}
	}
}

func TestDebouncerOnlyLastTriggerFires(t *testing.T) {
	sched := &manualScheduler{}
	d := NewDebouncer(0, sched)
	assert.Equal(t, DefaultDebounce, d.Delay())

	var got []string
	for _, q := range []string{"a", "ab", "abc"} {
		q := q
		d.Trigger(func() { got = append(got, q) })
		sched.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, got)

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"abc"}, got)
	assert.False(t, d.Pending())
}

func TestDebouncerSpacedTriggersEachFire(t *testing.T) {
	sched := &manualScheduler{}
	d := NewDebouncer(300*time.Millisecond, sched)

	count := 0
	d.Trigger(func() { count++ })
	sched.Advance(300 * time.Millisecond)
	d.Trigger(func() { count++ })
	sched.Advance(300 * time.Millisecond)

	assert.Equal(t, 2, count)
}

func TestDebouncerFlushAndStop(t *testing.T) {
	sched := &manualScheduler{}
	d := NewDebouncer(time.Second, sched)

	ran := 0
	d.Trigger(func() { ran++ })
	assert.True(t, d.Flush())
	assert.False(t, d.Flush())
	sched.Advance(time.Second)
	assert.Equal(t, 1, ran)

	d.Trigger(func() { ran++ })
	d.Stop()
	d.Trigger(func() { ran++ })
	sched.Advance(time.Second)
	assert.Equal(t, 1, ran)
}

func TestDebouncerRealScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDebouncer(10*time.Millisecond, RealScheduler())
	var calls atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("debounced call never ran")
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
