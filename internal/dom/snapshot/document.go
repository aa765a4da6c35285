// Package snapshot implements dom.Document over a parsed HTML page. Layout is
// synthesized, host behaviour is simulated through registered handlers, and every
// side effect the overlay causes is appended to an ordered trace.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RowHeight is the synthesized height of every rendered element without a data-rect
const RowHeight = 20

// Behaviour simulates a host reaction to an event reaching an element that matches
// its selector. An empty selector matches events dispatched on the document itself.
type Behaviour func(doc *Document, target *Element, ev dom.Event)

type behaviour struct {
	selector string
	event    string
	fn       Behaviour
}

type keyListener struct {
	id      int
	capture bool
	fn      dom.KeyListener
}

// Document is an in-memory host page
type Document struct {
	mu sync.Mutex

	root   *html.Node
	host   string
	active *html.Node
	origin *html.Node

	handles    map[*html.Node]*Element
	selectors  map[string]cascadia.SelectorGroup
	behaviours []behaviour
	listeners  []keyListener
	observers  map[int]func()
	nextID     int

	failures map[string]string
	ignored  map[string]string

	trace []Entry
}

// Parse builds a Document from r, reporting host as its location host name
func Parse(r io.Reader, host string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &Document{
		root:      root,
		host:      host,
		handles:   make(map[*html.Node]*Element),
		selectors: make(map[string]cascadia.SelectorGroup),
		observers: make(map[int]func()),
		failures:  make(map[string]string),
		ignored:   make(map[string]string),
	}, nil
}

// ParseString is Parse over an in-memory string
func ParseString(src, host string) (*Document, error) {
	return Parse(strings.NewReader(src), host)
}

// Open loads a snapshot file from disk
func Open(path, host string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Parse(f, host)
}

// Host returns the simulated location host name
func (d *Document) Host() string { return d.host }

func (d *Document) compile(selector string) (cascadia.SelectorGroup, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sel, ok := d.selectors[selector]; ok {
		return sel, sel != nil
	}
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		d.selectors[selector] = nil
		return nil, false
	}
	d.selectors[selector] = sel
	return sel, true
}

func (d *Document) handle(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.handles[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.handles[n] = el
	return el
}

func (d *Document) queryAll(scope *html.Node, selector string) []dom.Element {
	sel, ok := d.compile(selector)
	if !ok {
		return nil
	}
	nodes := cascadia.QueryAll(scope, sel)
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.handle(n))
	}
	return out
}

func (d *Document) query(scope *html.Node, selector string) dom.Element {
	sel, ok := d.compile(selector)
	if !ok {
		return nil
	}
	if n := cascadia.Query(scope, sel); n != nil {
		return d.handle(n)
	}
	return nil
}

// Query returns the first element matching selector, or nil
func (d *Document) Query(selector string) dom.Element { return d.query(d.root, selector) }

// QueryAll returns every element matching selector in document order
func (d *Document) QueryAll(selector string) []dom.Element { return d.queryAll(d.root, selector) }

// Find is Query with the concrete element type, for tests and tooling
func (d *Document) Find(selector string) *Element {
	if el, ok := d.Query(selector).(*Element); ok {
		return el
	}
	return nil
}

// ElementByID returns the element carrying id, or nil
func (d *Document) ElementByID(id string) dom.Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.handle(found)
}

// ActiveElement returns the focused element, falling back to <body>
func (d *Document) ActiveElement() dom.Element {
	if d.active != nil && d.attached(d.active) {
		return d.handle(d.active)
	}
	if body := d.body(); body != nil {
		return d.handle(body)
	}
	return nil
}

// Blur moves focus back to <body>
func (d *Document) Blur() { d.active = nil }

func (d *Document) body() *html.Node {
	var body *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	return body
}

func (d *Document) head() *html.Node {
	var head *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Head {
			head = n
			return false
		}
		return true
	})
	return head
}

func (d *Document) attached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// AddKeyListener registers fn for PressKey deliveries
func (d *Document) AddKeyListener(capture bool, fn dom.KeyListener) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, keyListener{id: id, capture: capture, fn: fn})
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns how many key listeners are attached
func (d *Document) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// PressKey delivers ev to capture listeners, then to bubble listeners unless
// propagation was stopped. It reports whether the default action was prevented.
func (d *Document) PressKey(ev *dom.KeyEvent) bool {
	d.mu.Lock()
	listeners := append([]keyListener(nil), d.listeners...)
	d.mu.Unlock()
	for _, phase := range []bool{true, false} {
		for _, l := range listeners {
			if l.capture != phase {
				continue
			}
			l.fn(ev)
		}
		if ev.PropagationStopped() {
			break
		}
	}
	return ev.DefaultPrevented()
}

// Observe registers fn to run after structural edits
func (d *Document) Observe(fn func()) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.observers[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// Observers returns how many mutation observers are attached
func (d *Document) Observers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observers)
}

func (d *Document) notify() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Mutate runs fn against the raw tree and then notifies observers
func (d *Document) Mutate(fn func(root *html.Node)) {
	fn(d.root)
	d.notify()
}

// Remove detaches el from the tree
func (d *Document) Remove(el dom.Element) {
	e, ok := el.(*Element)
	if !ok || e.node.Parent == nil {
		return
	}
	d.Mutate(func(*html.Node) {
		e.node.Parent.RemoveChild(e.node)
	})
}

// AppendHTML parses fragment and appends it to the first element matching parent
func (d *Document) AppendHTML(parent, fragment string) error {
	p := d.Find(parent)
	if p == nil {
		return fmt.Errorf("append: no element matches %q", parent)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), p.node)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	d.Mutate(func(*html.Node) {
		for _, n := range nodes {
			p.node.AppendChild(n)
		}
	})
	return nil
}

// AppendStyle inserts a <style id=id> element into <head>
func (d *Document) AppendStyle(id, css string) error {
	parent := d.head()
	if parent == nil {
		parent = d.root
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	parent.AppendChild(style)
	d.record("style", d.handle(style), id)
	return nil
}

// Dispatch delivers ev to document-level behaviours
func (d *Document) Dispatch(ev dom.Event) error {
	d.record("dispatch", nil, ev.Type+keySuffix(ev))
	for _, b := range d.behaviourSnapshot() {
		if b.selector == "" && b.event == ev.Type {
			b.fn(d, nil, ev)
		}
	}
	return nil
}

func keySuffix(ev dom.Event) string {
	if ev.Key == "" {
		return ""
	}
	return ":" + ev.Key
}

// On registers a host behaviour for event reaching elements matching selector
func (d *Document) On(selector, event string, fn Behaviour) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.behaviours = append(d.behaviours, behaviour{selector: selector, event: event, fn: fn})
}

// EventOrigin is the element an event being delivered to behaviours was
// dispatched on, or nil outside a bubbling dispatch
func (d *Document) EventOrigin() *Element {
	d.mu.Lock()
	n := d.origin
	d.mu.Unlock()
	return d.handle(n)
}

func (d *Document) setOrigin(n *html.Node) (prev *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, d.origin = d.origin, n
	return prev
}

func (d *Document) behaviourSnapshot() []behaviour {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]behaviour(nil), d.behaviours...)
}

// FailOn makes op ("click", "dispatch", "focus", "scroll", "select") fail on
// elements matching selector
func (d *Document) FailOn(selector, op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[selector] = op
}

// IgnoreClick makes Click on matching elements a recorded no-op, the way a host
// framework can ignore programmatic clicks it does not consider genuine
func (d *Document) IgnoreClick(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignored[selector] = "click"
}

func (d *Document) rule(rules map[string]string, e *Element, op string) bool {
	d.mu.Lock()
	var sels []string
	for sel, o := range rules {
		if o == op {
			sels = append(sels, sel)
		}
	}
	d.mu.Unlock()
	for _, sel := range sels {
		if e.Matches(sel) {
			return true
		}
	}
	return false
}

// Render serializes the current tree, mostly for debugging failed tests
func (d *Document) Render() string {
	var b strings.Builder
	_ = html.Render(&b, d.root)
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
