package tui

import (
	"time"

	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/derailed/tview"
)

// Scheduler runs overlay tasks on the tview event goroutine, so overlay work and
// drawing never overlap. Every task is followed by the after-task hook, which the
// preview uses to re-render the rows.
type Scheduler struct {
	app       *tview.Application
	afterTask func()
}

// NewScheduler creates a scheduler posting onto app
func NewScheduler(app *tview.Application) *Scheduler {
	return &Scheduler{app: app}
}

// OnAfterTask sets the hook run after each task
func (s *Scheduler) OnAfterTask(fn func()) {
	s.afterTask = fn
}

// Post queues fn and redraws once it has run
func (s *Scheduler) Post(fn func()) {
	s.app.QueueUpdateDraw(func() {
		fn()
		if s.afterTask != nil {
			s.afterTask()
		}
	})
}

// After posts fn once d has elapsed
func (s *Scheduler) After(d time.Duration, fn func()) loop.Timer {
	return loop.AfterFunc(d, s.Post, fn)
}

// Now returns the wall clock
func (s *Scheduler) Now() time.Time { return time.Now() }
