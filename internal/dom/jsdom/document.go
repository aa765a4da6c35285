//go:build js && wasm

// Package jsdom backs dom.Document with the live browser page through syscall/js.
package jsdom

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/ajramos/mailkeys/internal/dom"
)

// Document is the page the WebAssembly module was loaded into
type Document struct {
	win js.Value
	doc js.Value
}

// New binds the global window and document
func New() *Document {
	win := js.Global()
	return &Document{win: win, doc: win.Get("document")}
}

// Loaded blocks until the document has finished parsing. It must not be called
// from a JavaScript callback.
func (d *Document) Loaded() {
	if d.doc.Get("readyState").String() != "loading" {
		return
	}
	done := make(chan struct{})
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		close(done)
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", cb, map[string]any{"once": true})
	<-done
}

// Host returns location.hostname
func (d *Document) Host() string {
	return d.win.Get("location").Get("hostname").String()
}

func (d *Document) wrap(v js.Value) dom.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return &Element{v: v, doc: d}
}

func (d *Document) list(v js.Value) []dom.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	n := v.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{v: v.Index(i), doc: d})
	}
	return out
}

// Query returns the first match of selector, or nil when there is none or the
// selector is rejected by the browser
func (d *Document) Query(selector string) dom.Element {
	v, err := call(d.doc, "querySelector", selector)
	if err != nil {
		return nil
	}
	return d.wrap(v)
}

// QueryAll returns every match of selector in document order
func (d *Document) QueryAll(selector string) []dom.Element {
	v, err := call(d.doc, "querySelectorAll", selector)
	if err != nil {
		return nil
	}
	return d.list(v)
}

func (d *Document) ElementByID(id string) dom.Element {
	return d.wrap(d.doc.Call("getElementById", id))
}

func (d *Document) ActiveElement() dom.Element {
	return d.wrap(d.doc.Get("activeElement"))
}

// AddKeyListener attaches fn to keydown on the document
func (d *Document) AddKeyListener(capture bool, fn dom.KeyListener) func() {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		native := args[0]
		if native.Get("isComposing").Truthy() {
			return nil
		}
		ev := &dom.KeyEvent{
			Key:   native.Get("key").String(),
			Code:  native.Get("code").String(),
			Shift: native.Get("shiftKey").Bool(),
			Ctrl:  native.Get("ctrlKey").Bool(),
			Alt:   native.Get("altKey").Bool(),
			Meta:  native.Get("metaKey").Bool(),
			OnPrevent: func() {
				native.Call("preventDefault")
			},
			OnStop: func() {
				native.Call("stopImmediatePropagation")
			},
		}
		fn(ev)
		return nil
	})
	d.doc.Call("addEventListener", "keydown", cb, capture)
	return func() {
		d.doc.Call("removeEventListener", "keydown", cb, capture)
		cb.Release()
	}
}

// Observe reports child list changes anywhere under the body
func (d *Document) Observe(fn func()) func() {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	obs := d.win.Get("MutationObserver").New(cb)
	target := d.doc.Get("body")
	if target.IsNull() {
		target = d.doc.Get("documentElement")
	}
	obs.Call("observe", target, map[string]any{"childList": true, "subtree": true})
	return func() {
		obs.Call("disconnect")
		cb.Release()
	}
}

// AppendStyle adds a style element once; a second call with the same id updates
// its rules
func (d *Document) AppendStyle(id, css string) error {
	if el := d.doc.Call("getElementById", id); !el.IsNull() {
		el.Set("textContent", css)
		return nil
	}
	parent := d.doc.Get("head")
	if parent.IsNull() {
		parent = d.doc.Get("documentElement")
	}
	if parent.IsNull() {
		return fmt.Errorf("append style %s: %w", id, dom.ErrDetached)
	}
	el := d.doc.Call("createElement", "style")
	el.Set("id", id)
	el.Set("textContent", css)
	parent.Call("appendChild", el)
	return nil
}

// Dispatch delivers a synthetic event to the document
func (d *Document) Dispatch(ev dom.Event) error {
	_, err := call(d.doc, "dispatchEvent", d.event(ev))
	return err
}

// event builds the native event matching ev.Type
func (d *Document) event(ev dom.Event) js.Value {
	init := map[string]any{
		"bubbles":    ev.Bubbles,
		"cancelable": ev.Cancelable,
	}
	ctor := "Event"
	switch {
	case strings.HasPrefix(ev.Type, "key"):
		ctor = "KeyboardEvent"
		init["key"] = ev.Key
	case ev.Type == "click" || strings.HasPrefix(ev.Type, "mouse") || strings.HasPrefix(ev.Type, "pointer"):
		ctor = "MouseEvent"
		if strings.HasPrefix(ev.Type, "pointer") && d.win.Get("PointerEvent").Truthy() {
			ctor = "PointerEvent"
		}
		init["view"] = d.win
		init["clientX"] = ev.ClientX
		init["clientY"] = ev.ClientY
		init["button"] = 0
	}
	return d.win.Get(ctor).New(ev.Type, init)
}

// call invokes a method that may throw, such as querySelector with a selector the
// browser rejects, and turns the exception into an error
func call(v js.Value, method string, args ...any) (res js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = fmt.Errorf("%s: %s", method, jsErr.Error())
				return
			}
			err = fmt.Errorf("%s: %v", method, r)
		}
	}()
	return v.Call(method, args...), nil
}
