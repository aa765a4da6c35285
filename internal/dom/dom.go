// Package dom is the boundary between the overlay and the host page. Everything the
// overlay reads or mutates goes through Document and Element; backends live in the
// snapshot (parsed HTML) and jsdom (syscall/js) subpackages.
package dom

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrDetached is returned when an element is no longer part of the document
	ErrDetached = errors.New("element detached from document")
	// ErrNotFocusable is returned when focus cannot be moved to an element
	ErrNotFocusable = errors.New("element not focusable")
	// ErrUnsupported is returned when a backend cannot perform an interaction
	ErrUnsupported = errors.New("interaction not supported")
)

// Rect is an element's rendered box in CSS pixels
type Rect struct {
	X, Y, Width, Height float64
}

// Empty reports whether the box has no rendered area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Event is a synthetic event dispatched onto an element or the document
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool
	ClientX    float64
	ClientY    float64
	Key        string
}

// Element is an opaque handle to a node rendered by the host. Handles may go stale
// at any time; callers re-query instead of holding them across a delay.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	Text() string
	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)

	Rect() Rect
	Disabled() bool
	Checked() bool
	SetChecked(checked bool)
	IsContentEditable() bool

	Parent() Element
	Closest(selector string) Element
	Contains(other Element) bool
	Same(other Element) bool
	Matches(selector string) bool
	Query(selector string) Element
	QueryAll(selector string) []Element

	Click() error
	Dispatch(ev Event) error
	Focus() error
	Select() error
	ScrollIntoView() error
}

// KeyListener receives key presses observed by the document
type KeyListener func(ev *KeyEvent)

// Document is the live host page
type Document interface {
	Host() string
	Query(selector string) Element
	QueryAll(selector string) []Element
	ElementByID(id string) Element
	ActiveElement() Element

	// AddKeyListener attaches a keydown listener; capture selects the capturing phase
	AddKeyListener(capture bool, fn KeyListener) (remove func())
	// Observe calls fn after structural changes to the document subtree
	Observe(fn func()) (stop func())
	// AppendStyle inserts a <style> element carrying the given id
	AppendStyle(id, css string) error
	Dispatch(ev Event) error
}

// KeyEvent is a keydown observed at the document level
type KeyEvent struct {
	Key   string
	Code  string
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool

	prevented bool
	stopped   bool

	// OnPrevent and OnStop forward to the backend's native event, when there is one
	OnPrevent func()
	OnStop    func()
}

// shiftedSymbols are typed with Shift held on a US layout
const shiftedSymbols = `~!@#$%^&*()_+{}|:"<>?`

// NewKeyEvent builds the keydown a browser reports for key on a US layout. For a
// single printable character Shift is inferred from the character itself; named
// keys such as "Escape" carry their name as the code.
func NewKeyEvent(key string) *KeyEvent {
	ev := &KeyEvent{Key: key}
	r := []rune(key)
	if len(r) != 1 {
		ev.Code = key
		return ev
	}
	ev.Shift = unicode.IsUpper(r[0]) || strings.ContainsRune(shiftedSymbols, r[0])
	if r[0] < unicode.MaxASCII && unicode.IsLetter(r[0]) {
		ev.Code = "Key" + strings.ToUpper(key)
	}
	return ev
}

// PreventDefault suppresses the browser's default handling of the key
func (e *KeyEvent) PreventDefault() {
	if e.prevented {
		return
	}
	e.prevented = true
	if e.OnPrevent != nil {
		e.OnPrevent()
	}
}

// StopPropagation keeps the key from reaching the host's own handlers
func (e *KeyEvent) StopPropagation() {
	if e.stopped {
		return
	}
	e.stopped = true
	if e.OnStop != nil {
		e.OnStop()
	}
}

// DefaultPrevented reports whether PreventDefault was called
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// PropagationStopped reports whether StopPropagation was called
func (e *KeyEvent) PropagationStopped() bool { return e.stopped }

// HasAccelerator reports whether Ctrl, Alt or Meta is held
func (e *KeyEvent) HasAccelerator() bool {
	return e.Ctrl || e.Alt || e.Meta
}

// Visible reports whether el is present and has a non-zero rendered box
func Visible(el Element) bool {
	return el != nil && !el.Rect().Empty()
}

// Usable reports whether el can receive a click: visible and not disabled
func Usable(el Element) bool {
	return Visible(el) && !el.Disabled()
}

// IsEditable reports whether el accepts text input, either directly or because an
// ancestor is contenteditable
func IsEditable(el Element) bool {
	if el == nil {
		return false
	}
	switch strings.ToLower(el.Tag()) {
	case "input", "textarea", "select":
		return true
	}
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.IsContentEditable() {
			return true
		}
		if strings.EqualFold(cur.Tag(), "body") {
			break
		}
	}
	return false
}

// Describe returns a short label for trace and log output. It never includes the
// element's text, and list items lose the per-message part of their test id, so
// message content and identity cannot leak into logs.
func Describe(el Element) string {
	if el == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(el.Tag()))
	if id, ok := el.Attr("id"); ok && id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	for _, attr := range []string{"data-testid", "role", "type"} {
		if v, ok := el.Attr(attr); ok && v != "" {
			if attr == "data-testid" {
				v = itemKind(v)
			}
			b.WriteString("[")
			b.WriteString(attr)
			b.WriteString("=")
			b.WriteString(v)
			b.WriteString("]")
		}
	}
	return b.String()
}

// itemKind reduces an item test id such as "message-item:<id>" to its kind.
// Control ids ("toolbar:star") are kept whole.
func itemKind(testID string) string {
	kind, _, found := strings.Cut(testID, ":")
	if found && strings.HasSuffix(kind, "-item") {
		return kind
	}
	return testID
}

// IndexOf returns the position of el within list, or -1
func IndexOf(list []Element, el Element) int {
	if el == nil {
		return -1
	}
	for i, cand := range list {
		if cand.Same(el) {
			return i
		}
	}
	return -1
}
