//go:build js && wasm

package jsdom

import (
	"syscall/js"
	"time"

	"github.com/ajramos/mailkeys/internal/loop"
)

// Scheduler runs tasks on the browser's event loop through setTimeout. Callbacks
// from syscall/js already run one at a time, so no extra queue is needed.
type Scheduler struct {
	win js.Value
}

// NewScheduler binds the global setTimeout and clearTimeout
func NewScheduler() *Scheduler {
	return &Scheduler{win: js.Global()}
}

type timeout struct {
	win   js.Value
	id    js.Value
	cb    js.Func
	fired bool
}

// Stop clears the timeout if it has not fired yet
func (t *timeout) Stop() bool {
	if t.fired {
		return false
	}
	t.fired = true
	t.win.Call("clearTimeout", t.id)
	t.cb.Release()
	return true
}

// Post runs fn on a later turn of the event loop
func (s *Scheduler) Post(fn func()) {
	s.After(0, fn)
}

// After runs fn once d has elapsed
func (s *Scheduler) After(d time.Duration, fn func()) loop.Timer {
	t := &timeout{win: s.win}
	t.cb = js.FuncOf(func(js.Value, []js.Value) any {
		if t.fired {
			return nil
		}
		t.fired = true
		t.cb.Release()
		fn()
		return nil
	})
	t.id = s.win.Call("setTimeout", t.cb, d.Milliseconds())
	return t
}

// Now returns the wall clock
func (s *Scheduler) Now() time.Time { return time.Now() }
