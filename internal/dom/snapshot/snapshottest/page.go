// Package snapshottest builds small host pages for tests: a message list with
// checkboxes, a toolbar, navigation links and an optional open message, with the
// host reactions the overlay relies on already registered.
package snapshottest

import (
	"fmt"
	"strings"

	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
)

// Host is the location host name test pages report
const Host = "mail.proton.me"

// Selectors for the regions of a test page
const (
	RowSelector      = `[data-shortcut-target="item-container"]`
	CheckboxSelector = `input.item-checkbox`
	DetailSelector   = `[data-shortcut-target="message-container"]`
	BackSelector     = `[data-testid="toolbar:back-button"]`
	ArchiveSelector  = `[data-testid="toolbar:movetoarchive"]`
	DeleteSelector   = `[data-testid="toolbar:movetotrash"]`
	StarSelector     = `[data-testid="toolbar:star"]`
	ReadSelector     = `[data-testid="toolbar:read"]`
	UnreadSelector   = `[data-testid="toolbar:unread"]`
	LabelSelector    = `[data-testid="toolbar:labelas"]`
	ReplySelector    = `[data-testid="message-view:reply"]`
	ReplyAllSelector = `[data-testid="message-view:reply-all"]`
	ForwardSelector  = `[data-testid="message-view:forward"]`
	ComposeSelector  = `[data-testid="sidebar:compose"]`
	SearchSelector   = `input[data-testid="search-keyword"]`
)

// Options shape the generated page
type Options struct {
	Rows    int
	Checked []int
	// DetailOpen renders the message view instead of hiding it
	DetailOpen bool
	// OpenOnRowClick makes a click reaching a row open the message view
	OpenOnRowClick bool
	// NoToolbar leaves out the toolbar and its buttons
	NoToolbar bool
}

// HTML renders the page markup for opts
func HTML(opts Options) string {
	checked := map[int]bool{}
	for _, i := range opts.Checked {
		checked[i] = true
	}
	hidden := ` hidden`
	if opts.DetailOpen {
		hidden = ""
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Inbox</title></head><body>`)
	b.WriteString(`<nav>`)
	for _, n := range []struct{ id, text string }{
		{"inbox", "Inbox"}, {"starred", "Starred"}, {"sent", "Sent"},
		{"drafts", "Drafts"}, {"all-mail", "All mail"}, {"trash", "Trash"},
	} {
		fmt.Fprintf(&b, `<a data-testid="navigation-link:%s" href="/%s">%s</a>`, n.id, n.id, n.text)
	}
	b.WriteString(`</nav>`)
	b.WriteString(`<button data-testid="sidebar:compose">New message</button>`)
	b.WriteString(`<input data-testid="search-keyword" placeholder="Search messages">`)
	if !opts.NoToolbar {
		b.WriteString(`<div data-testid="toolbar">`)
		fmt.Fprintf(&b, `<button data-testid="toolbar:back-button" title="Back to list"%s>Back</button>`, hidden)
		b.WriteString(`<button data-testid="toolbar:movetoarchive" title="Move to archive"></button>`)
		b.WriteString(`<button data-testid="toolbar:movetotrash" title="Move to trash"></button>`)
		b.WriteString(`<button data-testid="toolbar:star" title="Star"></button>`)
		b.WriteString(`<button data-testid="toolbar:read" title="Mark as read"></button>`)
		b.WriteString(`<button data-testid="toolbar:unread" title="Mark as unread"></button>`)
		b.WriteString(`<button data-testid="toolbar:labelas" title="Label as"></button>`)
		b.WriteString(`</div>`)
	}
	b.WriteString(`<main><div class="items-column-list">`)
	for i := 0; i < opts.Rows; i++ {
		state := ""
		if checked[i] {
			state = " checked"
		}
		fmt.Fprintf(&b, `<div data-shortcut-target="item-container" data-testid="message-item:%d">`, i)
		fmt.Fprintf(&b, `<input type="checkbox" class="item-checkbox" id="cb-%d"%s>`, i, state)
		fmt.Fprintf(&b, `<span class="item-subject">Subject %d</span></div>`, i)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<article data-shortcut-target="message-container"%s>`, hidden)
	b.WriteString(`<h1>Opened message</h1>`)
	b.WriteString(`<button data-testid="message-view:reply" title="Reply">Reply</button>`)
	b.WriteString(`<button data-testid="message-view:reply-all" title="Reply all">Reply all</button>`)
	b.WriteString(`<button data-testid="message-view:forward" title="Forward">Forward</button>`)
	b.WriteString(`</article></main></body></html>`)
	return b.String()
}

// New parses the page for opts and registers its host behaviours. It panics on a
// parse failure, which can only come from a bug in HTML.
func New(opts Options) *snapshot.Document {
	doc, err := snapshot.ParseString(HTML(opts), Host)
	if err != nil {
		panic(fmt.Sprintf("snapshottest: %v", err))
	}
	Install(doc, opts)
	return doc
}

// Install registers the host reactions: the back button and Escape close the
// message view, and with OpenOnRowClick a row click opens it unless it started
// on the row's checkbox
func Install(doc *snapshot.Document, opts Options) {
	closeView := func(doc *snapshot.Document, _ *snapshot.Element, _ dom.Event) {
		SetDetailOpen(doc, false)
	}
	doc.On(BackSelector, "click", closeView)
	doc.On("", "keydown", func(doc *snapshot.Document, target *snapshot.Element, ev dom.Event) {
		if ev.Key == "Escape" {
			closeView(doc, target, ev)
		}
	})
	if opts.OpenOnRowClick {
		doc.On(RowSelector, "click", func(doc *snapshot.Document, _ *snapshot.Element, _ dom.Event) {
			if origin := doc.EventOrigin(); origin != nil && origin.Matches(CheckboxSelector) {
				return
			}
			SetDetailOpen(doc, true)
		})
	}
}

// SetDetailOpen shows or hides the message view and its back button
func SetDetailOpen(doc *snapshot.Document, open bool) {
	if el := doc.Find(DetailSelector); el != nil {
		el.SetHidden(!open)
	}
	if el := doc.Find(BackSelector); el != nil {
		el.SetHidden(!open)
	}
}

// Row returns the i-th row of the page, visible or not
func Row(doc *snapshot.Document, i int) *snapshot.Element {
	return doc.Find(fmt.Sprintf(`[data-testid="message-item:%d"]`, i))
}

// Checkbox returns the checkbox of the i-th row
func Checkbox(doc *snapshot.Document, i int) *snapshot.Element {
	return doc.Find(fmt.Sprintf(`#cb-%d`, i))
}

// Clicks counts clicks on elements matching selector, direct or dispatched
func Clicks(doc *snapshot.Document, selector string) int {
	n := 0
	for _, e := range doc.TraceOps("click", "dispatch") {
		if e.Target == nil || !e.Target.Matches(selector) {
			continue
		}
		if e.Op == "click" || e.Detail == "click" {
			n++
		}
	}
	return n
}
