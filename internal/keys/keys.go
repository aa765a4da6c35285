// Package keys maps key presses onto cursor moves and actions. It owns the
// chord state and the rules for when a key must be left to the host.
package keys

import (
	"log"
	"strings"

	"github.com/ajramos/mailkeys/internal/actions"
	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/cursor"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/loop"
)

// Operation names reported to OnCommand besides the action names
const (
	OpNext   = "next"
	OpPrev   = "prev"
	OpToggle = "toggle"
)

// ShiftAllowed lists the keys that still fire with Shift held. They are the
// characters a US layout only produces with Shift.
var ShiftAllowed = map[string]bool{
	"#": true,
	"*": true,
	"I": true,
	"U": true,
	"{": true,
	"}": true,
}

// shifted brackets move the cursor like their unshifted bindings
var shiftedBrackets = map[string]string{"]": "}", "[": "{"}

// State of the chord machine
type State int

const (
	Idle State = iota
	ChordPending
)

func (s State) String() string {
	if s == ChordPending {
		return "chord_pending"
	}
	return "idle"
}

// Dispatcher turns key events into operations. It must only be used from the loop.
type Dispatcher struct {
	doc    dom.Document
	cur    *cursor.Cursor
	seq    *actions.Sequencer
	sched  loop.Scheduler
	keys   config.KeyBindings
	logger *log.Logger

	plain map[string]string
	chord map[string]actions.Action

	state State
	timer loop.Timer

	commands []func(op string)
}

// NewDispatcher builds the plain and chord tables from kb
func NewDispatcher(doc dom.Document, cur *cursor.Cursor, seq *actions.Sequencer, sched loop.Scheduler, kb config.KeyBindings, logger *log.Logger) *Dispatcher {
	d := &Dispatcher{
		doc:    doc,
		cur:    cur,
		seq:    seq,
		sched:  sched,
		keys:   kb,
		logger: logger,
		plain:  map[string]string{},
		chord:  map[string]actions.Action{},
	}
	bind := func(key, op string) {
		if key != "" {
			d.plain[key] = op
		}
	}
	bind(kb.Next, OpNext)
	bind(kb.NextAlt, OpNext)
	bind(shiftedBrackets[kb.NextAlt], OpNext)
	bind(kb.Prev, OpPrev)
	bind(kb.PrevAlt, OpPrev)
	bind(shiftedBrackets[kb.PrevAlt], OpPrev)
	bind(kb.Toggle, OpToggle)
	for key, a := range map[string]actions.Action{
		kb.Archive:    actions.Archive,
		kb.Delete:     actions.Delete,
		kb.Reply:      actions.Reply,
		kb.ReplyAll:   actions.ReplyAll,
		kb.Forward:    actions.Forward,
		kb.MarkRead:   actions.MarkRead,
		kb.MarkUnread: actions.MarkUnread,
		kb.Label:      actions.Label,
		kb.BackToList: actions.BackToList,
		kb.Compose:    actions.Compose,
		kb.Search:     actions.Search,
	} {
		bind(key, string(a))
	}
	bind(kb.DeleteAlt, string(actions.Delete))
	bind(kb.Star, string(actions.Star))
	bind(kb.StarAlt, string(actions.Star))
	bind(kb.StarDigit, string(actions.Star))

	for key, a := range map[string]actions.Action{
		kb.GoInbox:   actions.GoInbox,
		kb.GoStarred: actions.GoStarred,
		kb.GoSent:    actions.GoSent,
		kb.GoDrafts:  actions.GoDrafts,
		kb.GoAllMail: actions.GoAllMail,
		kb.GoTrash:   actions.GoTrash,
	} {
		if key != "" {
			d.chord[key] = a
		}
	}
	return d
}

// OnCommand registers fn to receive the name of every operation fired
func (d *Dispatcher) OnCommand(fn func(op string)) {
	d.commands = append(d.commands, fn)
}

// State returns the chord state
func (d *Dispatcher) State() State { return d.state }

func (d *Dispatcher) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// Handle processes one key press and reports whether it was consumed. A consumed
// key has its default prevented and its propagation stopped; any other key is left
// untouched for the host.
func (d *Dispatcher) Handle(ev *dom.KeyEvent) bool {
	if ev == nil || dom.IsEditable(d.doc.ActiveElement()) {
		return false
	}
	if ev.HasAccelerator() {
		return false
	}
	if ev.Shift && !ShiftAllowed[ev.Key] {
		return false
	}
	key := ev.Key
	if !ev.Shift {
		key = capsLockFolded(key)
	}

	if d.state == ChordPending {
		d.resetChord()
		a, ok := d.chord[key]
		if !ok {
			d.logf("chord: no target")
			return false
		}
		consume(ev)
		d.fire(string(a))
		return true
	}

	if key == d.keys.ChordPrefix && d.keys.ChordPrefix != "" {
		consume(ev)
		d.state = ChordPending
		d.timer = d.sched.After(d.keys.ChordTimeout(), func() {
			d.state = Idle
			d.timer = nil
		})
		return true
	}

	op, ok := d.plain[key]
	if !ok {
		return false
	}
	if op == string(actions.Label) && len(d.cur.View().Selected()) < 2 {
		return false
	}
	consume(ev)
	d.fire(op)
	return true
}

func (d *Dispatcher) resetChord() {
	d.state = Idle
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// capsLockFolded lowercases a capital letter typed without Shift, which only
// Caps Lock produces
func capsLockFolded(key string) string {
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		return strings.ToLower(key)
	}
	return key
}

func consume(ev *dom.KeyEvent) {
	ev.PreventDefault()
	ev.StopPropagation()
}

func (d *Dispatcher) fire(op string) {
	d.logf("key: %s", op)
	for _, fn := range d.commands {
		fn(op)
	}
	switch op {
	case OpNext:
		d.cur.Move(cursor.Next)
	case OpPrev:
		d.cur.Move(cursor.Prev)
	case OpToggle:
		d.cur.ToggleCurrent()
	default:
		d.seq.Perform(actions.Action(op))
	}
}
