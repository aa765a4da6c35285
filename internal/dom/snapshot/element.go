package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ajramos/mailkeys/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle to one node of a snapshot Document
type Element struct {
	doc  *Document
	node *html.Node
}

var _ dom.Element = (*Element)(nil)

// Node exposes the underlying parse tree node
func (e *Element) Node() *html.Node { return e.node }

func (e *Element) Tag() string { return e.node.Data }

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute
func (e *Element) RemoveAttr(name string) {
	out := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	e.node.Attr = out
}

// SetHidden toggles the hidden attribute, the way a host shows and hides a region
func (e *Element) SetHidden(hidden bool) {
	if hidden {
		e.SetAttr("hidden", "")
		return
	}
	e.RemoveAttr("hidden")
}

// Text returns the element's text content with whitespace collapsed
func (e *Element) Text() string {
	var b strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

func (e *Element) classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

func (e *Element) HasClass(name string) bool {
	for _, c := range e.classes() {
		if c == name {
			return true
		}
	}
	return false
}

func (e *Element) AddClass(name string) {
	if e.HasClass(name) {
		return
	}
	e.SetAttr("class", strings.TrimSpace(strings.Join(append(e.classes(), name), " ")))
	e.doc.record("class+", e, name)
}

func (e *Element) RemoveClass(name string) {
	if !e.HasClass(name) {
		return
	}
	kept := make([]string, 0, len(e.classes()))
	for _, c := range e.classes() {
		if c != name {
			kept = append(kept, c)
		}
	}
	e.SetAttr("class", strings.Join(kept, " "))
	e.doc.record("class-", e, name)
}

func hidden(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if hasAttr(n, "hidden") {
		return true
	}
	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// Rect synthesizes a box: zero when the element or an ancestor is hidden or the
// element is detached, data-rect="x,y,w,h" when present, otherwise a row-sized box
// positioned by document order.
func (e *Element) Rect() dom.Rect {
	if !e.doc.attached(e.node) {
		return dom.Rect{}
	}
	for cur := e.node; cur != nil; cur = cur.Parent {
		if hidden(cur) {
			return dom.Rect{}
		}
	}
	if v, ok := e.Attr("data-rect"); ok {
		if r, err := parseRect(v); err == nil {
			return r
		}
	}
	order := 0
	walk(e.doc.root, func(n *html.Node) bool {
		if n == e.node {
			return false
		}
		if n.Type == html.ElementNode {
			order++
		}
		return true
	})
	return dom.Rect{X: 0, Y: float64(order * RowHeight), Width: 100, Height: RowHeight}
}

func parseRect(v string) (dom.Rect, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return dom.Rect{}, fmt.Errorf("data-rect wants 4 values, got %d", len(parts))
	}
	var f [4]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dom.Rect{}, err
		}
		f[i] = n
	}
	return dom.Rect{X: f[0], Y: f[1], Width: f[2], Height: f[3]}, nil
}

func (e *Element) Disabled() bool {
	if _, ok := e.Attr("disabled"); ok {
		return true
	}
	v, _ := e.Attr("aria-disabled")
	return v == "true"
}

func (e *Element) isCheckbox() bool {
	if e.node.DataAtom != atom.Input {
		return false
	}
	t, _ := e.Attr("type")
	return strings.EqualFold(t, "checkbox") || strings.EqualFold(t, "radio")
}

func (e *Element) Checked() bool {
	if e.isCheckbox() {
		_, ok := e.Attr("checked")
		return ok
	}
	v, _ := e.Attr("aria-checked")
	return v == "true"
}

// SetChecked writes the checked state without firing any event
func (e *Element) SetChecked(checked bool) {
	e.doc.record("checked", e, strconv.FormatBool(checked))
	e.writeChecked(checked)
}

func (e *Element) writeChecked(checked bool) {
	if e.isCheckbox() {
		if checked {
			e.SetAttr("checked", "")
		} else {
			e.RemoveAttr("checked")
		}
		return
	}
	e.SetAttr("aria-checked", strconv.FormatBool(checked))
}

func (e *Element) IsContentEditable() bool {
	v, ok := e.Attr("contenteditable")
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "", "true", "plaintext-only":
		return true
	}
	return false
}

func (e *Element) Parent() dom.Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return e.doc.handle(p)
		}
	}
	return nil
}

func (e *Element) Closest(selector string) dom.Element {
	sel, ok := e.doc.compile(selector)
	if !ok {
		return nil
	}
	for cur := e.node; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && sel.Match(cur) {
			return e.doc.handle(cur)
		}
	}
	return nil
}

func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	for cur := o.node; cur != nil; cur = cur.Parent {
		if cur == e.node {
			return true
		}
	}
	return false
}

func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	return ok && o != nil && o.node == e.node
}

func (e *Element) Matches(selector string) bool {
	sel, ok := e.doc.compile(selector)
	return ok && sel.Match(e.node)
}

func (e *Element) Query(selector string) dom.Element { return e.doc.query(e.node, selector) }

func (e *Element) QueryAll(selector string) []dom.Element { return e.doc.queryAll(e.node, selector) }

func (e *Element) check(op string) error {
	if !e.doc.attached(e.node) {
		return dom.ErrDetached
	}
	if e.doc.rule(e.doc.failures, e, op) {
		return fmt.Errorf("%s %s: %w", op, dom.Describe(e), dom.ErrUnsupported)
	}
	return nil
}

// Click performs the element's activation the way HTMLElement.click does
func (e *Element) Click() error {
	if err := e.check("click"); err != nil {
		return err
	}
	e.doc.record("click", e, "")
	if e.Disabled() || e.doc.rule(e.doc.ignored, e, "click") {
		return nil
	}
	e.activate(dom.Event{Type: "click", Bubbles: true, Cancelable: true})
	return nil
}

// Dispatch delivers a synthetic event; a click event still runs activation
// behaviour, as it does in browsers
func (e *Element) Dispatch(ev dom.Event) error {
	if err := e.check("dispatch"); err != nil {
		return err
	}
	e.doc.record("dispatch", e, ev.Type+keySuffix(ev))
	if ev.Type == "click" && !e.Disabled() {
		e.activate(ev)
		return nil
	}
	e.bubble(ev)
	return nil
}

func (e *Element) activate(ev dom.Event) {
	switch {
	case e.isCheckbox():
		e.writeChecked(!e.Checked())
	case e.node.DataAtom == atom.Label:
		if ctl := e.labelControl(); ctl != nil && !ctl.Disabled() {
			ctl.writeChecked(!ctl.Checked())
		}
	}
	e.bubble(ev)
}

func (e *Element) labelControl() *Element {
	if id, ok := e.Attr("for"); ok && id != "" {
		if el, ok := e.doc.ElementByID(id).(*Element); ok && el.isCheckbox() {
			return el
		}
	}
	if el, ok := e.Query("input").(*Element); ok && el.isCheckbox() {
		return el
	}
	return nil
}

func (e *Element) bubble(ev dom.Event) {
	behaviours := e.doc.behaviourSnapshot()
	prev := e.doc.setOrigin(e.node)
	defer e.doc.setOrigin(prev)
	for cur := e.node; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		target := e.doc.handle(cur)
		for _, b := range behaviours {
			if b.event == ev.Type && b.selector != "" && target.Matches(b.selector) {
				b.fn(e.doc, target, ev)
			}
		}
		if !ev.Bubbles {
			return
		}
	}
}

func (e *Element) Focus() error {
	if err := e.check("focus"); err != nil {
		return err
	}
	e.doc.record("focus", e, "")
	e.doc.active = e.node
	return nil
}

func (e *Element) Select() error {
	if err := e.check("select"); err != nil {
		return err
	}
	e.doc.record("select", e, "")
	return nil
}

func (e *Element) ScrollIntoView() error {
	if err := e.check("scroll"); err != nil {
		return err
	}
	e.doc.record("scroll", e, "")
	return nil
}
