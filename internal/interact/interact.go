// Package interact issues best-effort interactions against host elements. The host
// never acknowledges an interaction, so a strategy that returns without error is
// assumed to have worked.
package interact

import (
	"fmt"
	"log"

	"github.com/ajramos/mailkeys/internal/dom"
)

// Strategy is one way of activating an element
type Strategy struct {
	Name string
	Do   func(el dom.Element) error
}

func mouse(typ string, el dom.Element) dom.Event {
	r := el.Rect()
	return dom.Event{
		Type:       typ,
		Bubbles:    true,
		Cancelable: true,
		ClientX:    r.X + r.Width/2,
		ClientY:    r.Y + r.Height/2,
	}
}

// ClickStrategies are tried in order when activating a control
var ClickStrategies = []Strategy{
	{Name: "click", Do: func(el dom.Element) error { return el.Click() }},
	{Name: "synthetic click", Do: func(el dom.Element) error { return el.Dispatch(mouse("click", el)) }},
	{Name: "pointer sequence", Do: func(el dom.Element) error {
		for _, typ := range []string{"mousedown", "mouseup", "click"} {
			if err := el.Dispatch(mouse(typ, el)); err != nil {
				return err
			}
		}
		return nil
	}},
}

// Activator runs activation strategies and logs which one was used
type Activator struct {
	logger *log.Logger
}

// New creates an Activator. A nil logger keeps it silent.
func New(logger *log.Logger) *Activator {
	return &Activator{logger: logger}
}

func (a *Activator) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// Activate tries each click strategy until one does not fail. It returns false
// when el is nil or every strategy failed.
func (a *Activator) Activate(el dom.Element) bool {
	if el == nil {
		return false
	}
	for _, s := range ClickStrategies {
		if err := s.Do(el); err != nil {
			a.logf("activate %s: %s failed: %v", dom.Describe(el), s.Name, err)
			continue
		}
		return true
	}
	return false
}

// Toggle flips a checkable control. Each layer runs only when the previous one
// left the state unchanged: direct click, state write announced through input and
// change events, a synthetic click event, and finally a click on a wrapping label.
// It reports whether the control ended up flipped.
func (a *Activator) Toggle(cb dom.Element) bool {
	if cb == nil {
		return false
	}
	want := !cb.Checked()
	layers := []Strategy{
		{Name: "click", Do: func(el dom.Element) error { return el.Click() }},
		{Name: "state write", Do: func(el dom.Element) error {
			el.SetChecked(want)
			for _, typ := range []string{"input", "change"} {
				if err := el.Dispatch(dom.Event{Type: typ, Bubbles: true}); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "synthetic click", Do: func(el dom.Element) error { return el.Dispatch(mouse("click", el)) }},
		{Name: "label click", Do: func(el dom.Element) error {
			label := el.Closest("label")
			if label == nil {
				return fmt.Errorf("no wrapping label: %w", dom.ErrUnsupported)
			}
			return label.Click()
		}},
	}
	for _, l := range layers {
		err := l.Do(cb)
		// a layer can flip the state and still fail afterwards, as when the
		// change events are rejected; the state is what counts
		if cb.Checked() == want {
			a.logf("toggle: %s", l.Name)
			return true
		}
		if err != nil {
			a.logf("toggle: %s failed: %v", l.Name, err)
		}
	}
	a.logf("toggle: state unchanged after every layer")
	return false
}

// ClickNear dispatches a click on row to the right of avoid, so the host sees
// activity on the row without the control under avoid receiving the click
func (a *Activator) ClickNear(row, avoid dom.Element) bool {
	if row == nil {
		return false
	}
	rr := row.Rect()
	x := rr.X + rr.Width/2
	if avoid != nil {
		ar := avoid.Rect()
		x = ar.X + ar.Width + 40
	}
	ev := dom.Event{Type: "click", Bubbles: true, Cancelable: true, ClientX: x, ClientY: rr.Y + rr.Height/2}
	if err := row.Dispatch(ev); err != nil {
		a.logf("click near: %v", err)
		return false
	}
	return true
}
