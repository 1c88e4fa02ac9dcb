package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance and Flush.
//
// Tests use it in place of Loop so that timer ordering is reproducible.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
	queue  []func()
}

type manualTimer struct {
	owner   *Manual
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// Stop cancels the timer if it has not fired yet.
func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManual returns a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the simulated clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Post queues fn until the next Flush or Advance.
func (m *Manual) Post(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// AfterFunc registers fn to fire once the clock passes now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Pending reports how many timers are still armed.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Flush runs queued posts, including ones queued while flushing.
func (m *Manual) Flush() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.Flush()
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		next.fn()
		m.Flush()
	}

	m.mu.Lock()
	m.now = target
	m.compact()
	m.mu.Unlock()
}

// nextDue pops the earliest armed timer due at or before target.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	armed := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.stopped && !t.fired && !t.at.After(target) {
			armed = append(armed, t)
		}
	}
	if len(armed) == 0 {
		return nil
	}
	sort.Slice(armed, func(i, j int) bool {
		if armed[i].at.Equal(armed[j].at) {
			return armed[i].seq < armed[j].seq
		}
		return armed[i].at.Before(armed[j].at)
	})

	next := armed[0]
	next.fired = true
	if next.at.After(m.now) {
		m.now = next.at
	}
	return next
}

func (m *Manual) compact() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
