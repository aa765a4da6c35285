// Package cursor owns the overlay's notion of the current row. The cursor is a
// position into the message set view, never a held element: every read is
// revalidated against a freshly computed row sequence.
package cursor

import (
	"errors"
	"log"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/interact"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/ajramos/mailkeys/internal/rows"
	"github.com/ajramos/mailkeys/internal/style"
)

// Unset is the cursor index before any row has been adopted
const Unset = -1

// Direction of a cursor move
type Direction int

const (
	Next Direction = 1
	Prev Direction = -1
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// Cursor is the selection state machine. It must only be used from the loop.
type Cursor struct {
	view   *rows.View
	loc    *locator.Service
	marker *style.Marker
	act    *interact.Activator
	sched  loop.Scheduler
	delays config.Delays
	logger *log.Logger

	index int
}

// New creates a cursor with no adopted row
func New(view *rows.View, loc *locator.Service, marker *style.Marker, act *interact.Activator, sched loop.Scheduler, delays config.Delays, logger *log.Logger) *Cursor {
	return &Cursor{
		view:   view,
		loc:    loc,
		marker: marker,
		act:    act,
		sched:  sched,
		delays: delays,
		logger: logger,
		index:  Unset,
	}
}

func (c *Cursor) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Index returns the raw cursor position, which may be stale
func (c *Cursor) Index() int { return c.index }

// View returns the message set view the cursor indexes into
func (c *Cursor) View() *rows.View { return c.view }

// CurrentRow returns the row under the cursor. An invalid cursor adopts the first
// row the host shows as selected, or the first row. It returns nil only when there
// are no rows.
func (c *Cursor) CurrentRow() dom.Element {
	return c.revalidate(c.view.Current())
}

func (c *Cursor) revalidate(all []dom.Element) dom.Element {
	if len(all) == 0 {
		c.index = Unset
		return nil
	}
	if c.index >= 0 && c.index < len(all) {
		return all[c.index]
	}
	for i, row := range all {
		if c.view.Checked(row, all) {
			c.index = i
			return row
		}
	}
	c.index = 0
	return all[0]
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// Move steps the cursor with wraparound. With the list showing, the marker moves
// to the new row. With a message open, the message is closed and the target row
// is opened after the settle delay; that path never sets the marker.
//
// An unset cursor first adopts its row and stops there, so the first move lands
// on the row the user is most likely looking at.
func (c *Cursor) Move(dir Direction) {
	c.logf("move %s", dir)
	if c.DetailOpen() {
		c.CloseDetail()
		c.sched.After(c.delays.SettleAfterClose(), func() {
			all := c.view.Current()
			if c.revalidate(all) == nil {
				return
			}
			c.index = wrap(c.index+int(dir), len(all))
			c.Open(all[c.index])
		})
		return
	}

	all := c.view.Current()
	adopting := c.index < 0 || c.index >= len(all)
	if c.revalidate(all) == nil {
		return
	}
	if !adopting {
		c.index = wrap(c.index+int(dir), len(all))
	}
	c.show(all[c.index])
}

// MoveTo jumps to index, clamped to the current rows. It does nothing while a
// message is open.
func (c *Cursor) MoveTo(index int) bool {
	if c.DetailOpen() {
		return false
	}
	all := c.view.Current()
	if len(all) == 0 {
		c.index = Unset
		return false
	}
	if index < 0 {
		index = 0
	}
	if index >= len(all) {
		index = len(all) - 1
	}
	c.index = index
	c.show(all[index])
	return true
}

func (c *Cursor) show(row dom.Element) {
	c.marker.ClearAll()
	c.marker.Mark(row)
	if err := row.ScrollIntoView(); err != nil {
		c.logf("scroll: %v", err)
	}
	if _, ok := row.Attr("tabindex"); !ok {
		row.SetAttr("tabindex", "-1")
	}
	if err := row.Focus(); err != nil && !errors.Is(err, dom.ErrNotFocusable) {
		c.logf("focus: %v", err)
	}
}

// ToggleCurrent flips the checked state of the current row and re-marks the
// cursor row once the host has re-rendered. It reports whether the row had a
// checkable control.
func (c *Cursor) ToggleCurrent() bool {
	all := c.view.Current()
	row := c.revalidate(all)
	if row == nil {
		c.logf("toggle: no rows")
		return false
	}
	cb := c.view.Checkbox(row, all)
	if cb == nil {
		c.logf("toggle: no checkbox")
		return false
	}
	c.act.Toggle(cb)
	c.sched.After(c.delays.ToggleRemark(), c.remark)
	return true
}

func (c *Cursor) remark() {
	if row := c.CurrentRow(); row != nil {
		c.marker.Mark(row)
	}
}

// Invalidate resets the cursor when it no longer points into the rows
func (c *Cursor) Invalidate() {
	if c.index == Unset {
		return
	}
	if n := len(c.view.Current()); c.index >= n {
		c.logf("invalidate: cursor out of range")
		c.index = Unset
	}
}

// Reassert puts the marker back on the cursor row when the host has dropped it.
// An unset cursor or an open message leaves the page alone.
func (c *Cursor) Reassert() {
	if c.index == Unset || c.DetailOpen() {
		return
	}
	all := c.view.Current()
	if c.index >= len(all) {
		return
	}
	row := all[c.index]
	if m := c.marker.Marked(); m != nil && m.Same(row) {
		return
	}
	c.marker.Mark(row)
}

// DetailOpen reports whether a message is open: the detail region is present and
// rendered
func (c *Cursor) DetailOpen() bool {
	return c.loc.Locate(locator.RoleDetailView) != nil
}

// CloseDetail returns to the list, through the host's back control when it has one
// and an Escape key press otherwise
func (c *Cursor) CloseDetail() bool {
	if btn := c.loc.Locate(locator.RoleCloseView); btn != nil && c.act.Activate(btn) {
		c.logf("close view")
		return true
	}
	ev := dom.Event{Type: "keydown", Key: "Escape", Bubbles: true, Cancelable: true}
	if err := c.loc.Document().Dispatch(ev); err != nil {
		c.logf("close view: escape: %v", err)
		return false
	}
	c.logf("close view: escape")
	return true
}

// Open activates row the way a pointer click would, opening the message
func (c *Cursor) Open(row dom.Element) bool {
	if row == nil {
		return false
	}
	return c.act.Activate(row)
}
