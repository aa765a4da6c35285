//go:build js && wasm

package jsdom

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/ajramos/mailkeys/internal/dom"
)

// Element wraps a live DOM element
type Element struct {
	v   js.Value
	doc *Document
}

func (e *Element) Tag() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e *Element) Attr(name string) (string, bool) {
	v := e.v.Call("getAttribute", name)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

func (e *Element) SetAttr(name, value string) {
	e.v.Call("setAttribute", name, value)
}

func (e *Element) Text() string {
	v := e.v.Get("textContent")
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func (e *Element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e *Element) AddClass(name string) {
	e.v.Get("classList").Call("add", name)
}

func (e *Element) RemoveClass(name string) {
	e.v.Get("classList").Call("remove", name)
}

// Rect returns getBoundingClientRect, or an empty box when detached
func (e *Element) Rect() dom.Rect {
	if !e.v.Get("isConnected").Bool() {
		return dom.Rect{}
	}
	r := e.v.Call("getBoundingClientRect")
	return dom.Rect{
		X:      r.Get("x").Float(),
		Y:      r.Get("y").Float(),
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
	}
}

func (e *Element) Disabled() bool {
	if e.v.Get("disabled").Truthy() {
		return true
	}
	v, _ := e.Attr("aria-disabled")
	return v == "true"
}

// Checked reads the checked property of inputs and aria-checked elsewhere
func (e *Element) Checked() bool {
	if e.isInput() {
		return e.v.Get("checked").Bool()
	}
	v, _ := e.Attr("aria-checked")
	return v == "true"
}

func (e *Element) SetChecked(checked bool) {
	if e.isInput() {
		e.v.Set("checked", checked)
		return
	}
	e.SetAttr("aria-checked", fmt.Sprint(checked))
}

func (e *Element) isInput() bool {
	return e.Tag() == "input"
}

func (e *Element) IsContentEditable() bool {
	return e.v.Get("isContentEditable").Truthy()
}

func (e *Element) Parent() dom.Element {
	return e.doc.wrap(e.v.Get("parentElement"))
}

func (e *Element) Closest(selector string) dom.Element {
	v, err := call(e.v, "closest", selector)
	if err != nil {
		return nil
	}
	return e.doc.wrap(v)
}

func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	return e.v.Call("contains", o.v).Bool()
}

func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	return e.v.Equal(o.v)
}

func (e *Element) Matches(selector string) bool {
	v, err := call(e.v, "matches", selector)
	if err != nil {
		return false
	}
	return v.Bool()
}

func (e *Element) Query(selector string) dom.Element {
	v, err := call(e.v, "querySelector", selector)
	if err != nil {
		return nil
	}
	return e.doc.wrap(v)
}

func (e *Element) QueryAll(selector string) []dom.Element {
	v, err := call(e.v, "querySelectorAll", selector)
	if err != nil {
		return nil
	}
	return e.doc.list(v)
}

// usable rejects handles that went stale and methods the element does not have
func (e *Element) usable(method string) error {
	if !e.v.Get("isConnected").Bool() {
		return dom.ErrDetached
	}
	if e.v.Get(method).Type() != js.TypeFunction {
		return fmt.Errorf("%s on %s: %w", method, dom.Describe(e), dom.ErrUnsupported)
	}
	return nil
}

func (e *Element) Click() error {
	if err := e.usable("click"); err != nil {
		return err
	}
	_, err := call(e.v, "click")
	return err
}

func (e *Element) Dispatch(ev dom.Event) error {
	if err := e.usable("dispatchEvent"); err != nil {
		return err
	}
	_, err := call(e.v, "dispatchEvent", e.doc.event(ev))
	return err
}

// Focus moves focus without scrolling and reports ErrNotFocusable when the
// browser refused it
func (e *Element) Focus() error {
	if err := e.usable("focus"); err != nil {
		return err
	}
	if _, err := call(e.v, "focus", map[string]any{"preventScroll": true}); err != nil {
		return err
	}
	if !e.doc.doc.Get("activeElement").Equal(e.v) {
		return dom.ErrNotFocusable
	}
	return nil
}

func (e *Element) Select() error {
	if err := e.usable("select"); err != nil {
		return err
	}
	_, err := call(e.v, "select")
	return err
}

func (e *Element) ScrollIntoView() error {
	if err := e.usable("scrollIntoView"); err != nil {
		return err
	}
	_, err := call(e.v, "scrollIntoView", map[string]any{"block": "nearest"})
	return err
}
