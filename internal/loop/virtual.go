package loop

import (
	"sort"
	"time"
)

// Virtual is a deterministic Scheduler driven by an explicit clock. Posted tasks
// and expired timers run only inside Advance, Flush or Drain, in due-time order
// with FIFO ordering among equal due times. A task is due once its due time is
// less than or equal to the current time.
type Virtual struct {
	now   time.Time
	seq   int
	tasks []*virtualTask
}

type virtualTask struct {
	due       time.Time
	seq       int
	fn        func()
	cancelled bool
	done      bool
}

func (t *virtualTask) Stop() bool {
	if t.done || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// NewVirtual creates a virtual clock starting at start
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time
func (v *Virtual) Now() time.Time { return v.now }

// Post queues fn to run at the current virtual time
func (v *Virtual) Post(fn func()) {
	v.schedule(v.now, fn)
}

// After queues fn to run once the clock has advanced by d
func (v *Virtual) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return v.schedule(v.now.Add(d), fn)
}

func (v *Virtual) schedule(due time.Time, fn func()) *virtualTask {
	v.seq++
	t := &virtualTask{due: due, seq: v.seq, fn: fn}
	v.tasks = append(v.tasks, t)
	return t
}

func (v *Virtual) next(limit time.Time) *virtualTask {
	sort.SliceStable(v.tasks, func(i, j int) bool {
		if v.tasks[i].due.Equal(v.tasks[j].due) {
			return v.tasks[i].seq < v.tasks[j].seq
		}
		return v.tasks[i].due.Before(v.tasks[j].due)
	})
	for len(v.tasks) > 0 {
		t := v.tasks[0]
		if t.cancelled {
			v.tasks = v.tasks[1:]
			continue
		}
		if t.due.After(limit) {
			return nil
		}
		v.tasks = v.tasks[1:]
		return t
	}
	return nil
}

// Advance moves the clock forward by d, running every task that falls due on the
// way, including tasks scheduled by those tasks
func (v *Virtual) Advance(d time.Duration) {
	target := v.now.Add(d)
	for {
		t := v.next(target)
		if t == nil {
			break
		}
		if t.due.After(v.now) {
			v.now = t.due
		}
		t.done = true
		t.fn()
	}
	v.now = target
}

// Flush runs every task that is already due without moving the clock
func (v *Virtual) Flush() {
	v.Advance(0)
}

// Drain runs tasks until none remain, advancing the clock as far as needed, and
// returns the total virtual time that passed. Tasks that keep rescheduling
// themselves are cut off after limit.
func (v *Virtual) Drain(limit time.Duration) time.Duration {
	start := v.now
	deadline := start.Add(limit)
	for {
		t := v.next(deadline)
		if t == nil {
			break
		}
		if t.due.After(v.now) {
			v.now = t.due
		}
		t.done = true
		t.fn()
	}
	return v.now.Sub(start)
}

// Pending returns how many live tasks are queued
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.tasks {
		if !t.cancelled && !t.done {
			n++
		}
	}
	return n
}
