// Package actions sequences the host interactions behind one semantic action.
// The host never signals that a re-render finished, so every multi-step action is
// a chain of continuations separated by fixed delays, and each continuation
// re-reads the document instead of trusting what it saw before the delay.
package actions

import (
	"log"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/cursor"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/interact"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/loop"
)

// Action is a semantic operation on the host
type Action string

const (
	Archive    Action = "archive"
	Delete     Action = "delete"
	Star       Action = "star"
	MarkRead   Action = "mark_read"
	MarkUnread Action = "mark_unread"
	Label      Action = "label"

	Reply    Action = "reply"
	ReplyAll Action = "reply_all"
	Forward  Action = "forward"

	Compose    Action = "compose"
	Search     Action = "search"
	BackToList Action = "back_to_list"

	GoInbox   Action = "go_inbox"
	GoStarred Action = "go_starred"
	GoSent    Action = "go_sent"
	GoDrafts  Action = "go_drafts"
	GoAllMail Action = "go_all_mail"
	GoTrash   Action = "go_trash"
)

// Kind decides how an action picks its target
type Kind int

const (
	// ListKind acts on the multi-selection, or on the cursor row
	ListKind Kind = iota
	// MessageKind acts on the open message, opening the cursor row first if needed
	MessageKind
	// GlobalKind acts on the page right away
	GlobalKind
)

type binding struct {
	kind Kind
	role locator.Role
}

var bindings = map[Action]binding{
	Archive:    {ListKind, locator.RoleArchive},
	Delete:     {ListKind, locator.RoleDelete},
	Star:       {ListKind, locator.RoleStar},
	MarkRead:   {ListKind, locator.RoleMarkRead},
	MarkUnread: {ListKind, locator.RoleMarkUnread},
	Label:      {ListKind, locator.RoleLabel},
	Reply:      {MessageKind, locator.RoleReply},
	ReplyAll:   {MessageKind, locator.RoleReplyAll},
	Forward:    {MessageKind, locator.RoleForward},
	Compose:    {GlobalKind, locator.RoleCompose},
	Search:     {GlobalKind, locator.RoleSearch},
	BackToList: {GlobalKind, locator.RoleCloseView},
	GoInbox:    {GlobalKind, locator.RoleNavInbox},
	GoStarred:  {GlobalKind, locator.RoleNavStarred},
	GoSent:     {GlobalKind, locator.RoleNavSent},
	GoDrafts:   {GlobalKind, locator.RoleNavDrafts},
	GoAllMail:  {GlobalKind, locator.RoleNavAll},
	GoTrash:    {GlobalKind, locator.RoleNavTrash},
}

// Kind returns how a is targeted; unknown actions are global
func (a Action) Kind() Kind {
	if b, ok := bindings[a]; ok {
		return b.kind
	}
	return GlobalKind
}

// Role returns the locator role of the control that performs a
func (a Action) Role() locator.Role {
	return bindings[a].role
}

// Known reports whether a is a defined action
func (a Action) Known() bool {
	_, ok := bindings[a]
	return ok
}

// Phase is a step of an action's continuation chain
type Phase string

const (
	PhaseClosingView Phase = "closing_view"
	PhaseReasserting Phase = "reasserting"
	PhaseSelecting   Phase = "selecting"
	PhaseOpening     Phase = "opening"
	PhaseActing      Phase = "acting"
	PhaseDone        Phase = "done"
	// PhaseSkipped ends an action that had nothing to act on
	PhaseSkipped Phase = "skipped"
)

// PhaseFunc observes phase transitions
type PhaseFunc func(a Action, p Phase)

// Sequencer runs actions against the host. Like the cursor it must only be used
// from the loop.
type Sequencer struct {
	cur    *cursor.Cursor
	loc    *locator.Service
	act    *interact.Activator
	sched  loop.Scheduler
	delays config.Delays
	logger *log.Logger

	observers []PhaseFunc
}

// NewSequencer creates a sequencer driving cur's rows through loc
func NewSequencer(cur *cursor.Cursor, loc *locator.Service, act *interact.Activator, sched loop.Scheduler, delays config.Delays, logger *log.Logger) *Sequencer {
	return &Sequencer{cur: cur, loc: loc, act: act, sched: sched, delays: delays, logger: logger}
}

// OnPhase registers fn for every phase transition
func (s *Sequencer) OnPhase(fn PhaseFunc) {
	s.observers = append(s.observers, fn)
}

func (s *Sequencer) phase(a Action, p Phase) {
	for _, fn := range s.observers {
		fn(a, p)
	}
}

func (s *Sequencer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Perform starts a. It returns once the first step has run; later steps run on
// the loop as their delays expire. Nothing is reported back: an action whose
// control cannot be found simply does not happen.
func (s *Sequencer) Perform(a Action) {
	if !a.Known() {
		s.logf("perform: unknown action %q", a)
		return
	}
	s.logf("perform %s", a)
	switch a.Kind() {
	case ListKind:
		s.performList(a)
	case MessageKind:
		s.performMessage(a)
	default:
		s.performGlobal(a)
	}
}

// performList picks between the multi-selection and the cursor row:
//  1. several rows selected with a message open: close it, re-assert the
//     selection once the list is back, then act
//  2. any rows selected: re-assert first if a message was open, then act after a
//     delay that grows with the selection and with the open message
//  3. nothing selected: select the cursor row, then act once the toolbar shows
//  4. no rows at all: nothing happens
func (s *Sequencer) performList(a Action) {
	selected := s.cur.View().Selected()
	current := s.cur.CurrentRow()
	wasOpen := s.cur.DetailOpen()

	switch {
	case len(selected) > 1 && wasOpen:
		s.phase(a, PhaseClosingView)
		s.cur.CloseDetail()
		s.sched.After(s.delays.ReassertAfterClose(), func() {
			s.phase(a, PhaseReasserting)
			s.ReassertSelection()
			s.sched.After(s.delays.ReassertSettle(), func() { s.invoke(a) })
		})

	case len(selected) > 0:
		delay := s.delays.ActSingle()
		if len(selected) > 1 {
			delay = s.delays.ActMulti()
		}
		if wasOpen {
			s.phase(a, PhaseReasserting)
			s.ReassertSelection()
			delay += s.delays.ActAfterClose()
		}
		s.sched.After(delay, func() { s.invoke(a) })

	case current != nil:
		s.phase(a, PhaseSelecting)
		if !s.cur.ToggleCurrent() {
			s.logf("%s: cursor row has no checkbox", a)
		}
		s.sched.After(s.delays.ToggleToAct(), func() { s.invoke(a) })

	default:
		s.logf("%s: no rows", a)
		s.phase(a, PhaseSkipped)
	}
}

func (s *Sequencer) performMessage(a Action) {
	if s.cur.DetailOpen() {
		s.invoke(a)
		return
	}
	row := s.cur.CurrentRow()
	if row == nil {
		s.logf("%s: no rows", a)
		s.phase(a, PhaseSkipped)
		return
	}
	s.phase(a, PhaseOpening)
	s.cur.Open(row)
	s.sched.After(s.delays.OpenToAct(), func() { s.invoke(a) })
}

func (s *Sequencer) performGlobal(a Action) {
	switch a {
	case BackToList:
		if !s.cur.DetailOpen() {
			s.phase(a, PhaseSkipped)
			return
		}
		s.phase(a, PhaseActing)
		s.cur.CloseDetail()
		s.phase(a, PhaseDone)
	case Search:
		s.phase(a, PhaseActing)
		s.focusSearch()
		s.phase(a, PhaseDone)
	default:
		s.invoke(a)
	}
}

// invoke locates a's control afresh and activates it
func (s *Sequencer) invoke(a Action) bool {
	s.phase(a, PhaseActing)
	defer s.phase(a, PhaseDone)
	el := s.loc.Locate(a.Role())
	if el == nil {
		s.logf("%s: control not found", a)
		return false
	}
	if !s.act.Activate(el) {
		s.logf("%s: activation failed", a)
		return false
	}
	return true
}

func (s *Sequencer) focusSearch() bool {
	el := s.loc.Locate(locator.RoleSearch)
	if el == nil {
		s.logf("search: box not found")
		return false
	}
	if err := el.Focus(); err != nil {
		s.logf("search: focus: %v", err)
		return false
	}
	if err := el.Select(); err != nil {
		s.logf("search: select: %v", err)
	}
	return true
}

// ReassertSelection clicks the first selected row away from its checkbox so the
// host brings its selection toolbar back without changing what is checked
func (s *Sequencer) ReassertSelection() bool {
	view := s.cur.View()
	all := view.Current()
	var first dom.Element
	for _, row := range all {
		if view.Checked(row, all) {
			first = row
			break
		}
	}
	if first == nil {
		s.logf("reassert: no selected row")
		return false
	}
	return s.act.ClickNear(first, view.Checkbox(first, all))
}
