// Package tui is a terminal preview of the overlay: the rows of a captured page
// are drawn as a list and terminal keys are delivered to the page as keydowns, so
// bindings and locator tables can be tried without a browser.
package tui

import (
	"fmt"
	"log"
	"strings"

	"github.com/ajramos/mailkeys/internal/actions"
	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/overlay"
	"github.com/ajramos/mailkeys/internal/render"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// traceLines is how many recent side effects the trace pane shows
const traceLines = 8

// App renders one overlay-driven snapshot in the terminal
type App struct {
	*tview.Application
	doc     *snapshot.Document
	overlay *overlay.Overlay
	sched   *Scheduler
	logger  *log.Logger

	views    map[string]tview.Primitive
	root     *tview.Flex
	renderer *render.RowRenderer

	lastOp    string
	lastPhase string
}

// NewApp builds the preview around doc. Attach the overlay before Run.
func NewApp(doc *snapshot.Document, logger *log.Logger) *App {
	app := &App{
		Application: tview.NewApplication(),
		doc:         doc,
		logger:      logger,
		views:       make(map[string]tview.Primitive),
		renderer:    render.NewRowRenderer(),
	}
	app.sched = NewScheduler(app.Application)
	app.sched.OnAfterTask(app.Refresh)
	app.initComponents()
	app.SetInputCapture(app.HandleKeyEvent)
	return app
}

// Scheduler returns the scheduler the overlay must be built with
func (a *App) Scheduler() *Scheduler { return a.sched }

// Root returns the top-level layout
func (a *App) Root() tview.Primitive { return a.root }

// Attach binds a started overlay to the preview
func (a *App) Attach(ov *overlay.Overlay) {
	a.overlay = ov
	ov.Dispatcher.OnCommand(func(op string) { a.lastOp = op })
	ov.Sequencer.OnPhase(func(act actions.Action, p actions.Phase) {
		a.lastPhase = fmt.Sprintf("%s %s", act, p)
	})
	a.logf("preview attached to %s", a.doc.Host())
	a.Refresh()
}

// ApplyColors switches the preview to a configured palette
func (a *App) ApplyColors(c config.PreviewColors) {
	a.renderer.SetColorer(render.NewRowColorerFrom(c))
	if list, ok := a.views["list"].(*tview.Table); ok {
		list.SetBorderColor(c.Border.Color())
	}
	if trace, ok := a.views["trace"].(*tview.TextView); ok {
		trace.SetBorderColor(c.Border.Color())
	}
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetTextColor(c.Status.Color())
	}
	a.Refresh()
}

func (a *App) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// initComponents creates the row list, the trace pane and the status bar
func (a *App) initComponents() {
	list := tview.NewTable().SetSelectable(false, false)
	list.SetBorder(true).
		SetBorderAttributes(tcell.AttrBold).
		SetTitle(" Messages ").
		SetTitleAlign(tview.AlignCenter)
	// rows are laid out for the width they are drawn at, which is unknown until
	// the first frame
	list.SetDrawFunc(func(_ tcell.Screen, x, y, width, height int) (int, int, int, int) {
		width, height = max(width-2, 0), max(height-2, 0)
		a.formatList(list, width)
		return x + 1, y + 1, width, height
	})

	trace := tview.NewTextView().SetDynamicColors(false).SetWrap(false)
	trace.SetBorder(true).SetTitle(" Page effects ")

	status := tview.NewTextView().SetDynamicColors(false)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(list, 0, 1, true).
		AddItem(trace, traceLines+2, 0, false).
		AddItem(status, 1, 0, false)

	a.views["list"] = list
	a.views["trace"] = trace
	a.views["status"] = status
	a.SetRoot(a.root, true)
}

// HandleKeyEvent delivers ev to the page. Keys the overlay does not consume get
// preview behaviour: q and Ctrl+C quit, Home and End jump.
func (a *App) HandleKeyEvent(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.overlay != nil {
		switch ev.Key() {
		case tcell.KeyHome:
			a.jump(0)
			return nil
		case tcell.KeyEnd:
			a.jump(len(a.overlay.Cursor.View().Current()) - 1)
			return nil
		}
	}
	kev := toKeyEvent(ev)
	if kev == nil {
		return ev
	}
	if a.doc.PressKey(kev) {
		a.Refresh()
		return nil
	}
	if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' && !kev.HasAccelerator() {
		a.Stop()
		return nil
	}
	a.Refresh()
	return ev
}

func (a *App) jump(index int) {
	if index < 0 {
		return
	}
	if a.overlay.Cursor.MoveTo(index) {
		a.lastOp = fmt.Sprintf("jump %d", index+1)
	}
	a.Refresh()
}

// Refresh re-reads the page and redraws every pane
func (a *App) Refresh() {
	a.refreshList()
	a.refreshTrace()
	a.refreshStatus()
}

func (a *App) refreshList() {
	list, ok := a.views["list"].(*tview.Table)
	if !ok {
		return
	}
	_, _, width, _ := list.GetInnerRect()
	a.formatList(list, width)
}

func (a *App) formatList(list *tview.Table, width int) {
	list.Clear()
	if a.overlay == nil {
		return
	}
	view := a.overlay.Cursor.View()
	all := view.Current()
	marked := a.overlay.Marker.Marked()
	for i, row := range all {
		line, color := a.renderer.FormatRow(render.Row{
			Index:   i,
			Text:    row.Text(),
			Checked: view.Checked(row, all),
			Cursor:  marked != nil && marked.Same(row),
		}, width)
		list.SetCell(i, 0, tview.NewTableCell(tview.Escape(line)).SetTextColor(color).SetExpansion(1))
	}
	if len(all) == 0 {
		list.SetCell(0, 0, tview.NewTableCell("  (no message rows on this page)").SetTextColor(tcell.ColorGray))
	}
}

func (a *App) refreshTrace() {
	trace, ok := a.views["trace"].(*tview.TextView)
	if !ok {
		return
	}
	entries := a.doc.TraceOps("click", "dispatch", "focus", "select", "checked")
	if len(entries) > traceLines {
		entries = entries[len(entries)-traceLines:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, render.SanitizeForTerminal(e.String()))
	}
	trace.SetTitle(tview.Escape(fmt.Sprintf(" Page effects | focus: %s ", a.FocusedElement())))
	trace.SetText(strings.Join(lines, "\n"))
}

func (a *App) refreshStatus() {
	status, ok := a.views["status"].(*tview.TextView)
	if !ok {
		return
	}
	status.SetText(a.StatusText())
}

// StatusText is the status bar content
func (a *App) StatusText() string {
	if a.overlay == nil {
		return "mailkeys | overlay inactive | q to quit"
	}
	view := "list"
	if a.overlay.Cursor.DetailOpen() {
		view = "message"
	}
	parts := []string{
		"mailkeys",
		fmt.Sprintf("rows: %d", len(a.overlay.Cursor.View().Current())),
		fmt.Sprintf("selected: %d", len(a.overlay.Cursor.View().Selected())),
		"view: " + view,
		"keys: " + a.overlay.Dispatcher.State().String(),
	}
	if a.lastOp != "" {
		parts = append(parts, "last: "+a.lastOp)
	}
	if a.lastPhase != "" {
		parts = append(parts, a.lastPhase)
	}
	return strings.Join(parts, " | ")
}

// FocusedElement describes the page element holding focus
func (a *App) FocusedElement() string {
	return dom.Describe(a.doc.ActiveElement())
}
