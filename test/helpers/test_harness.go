package helpers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/logging"
	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/ajramos/mailkeys/internal/overlay"
	"github.com/ajramos/mailkeys/internal/tui"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Screen size used by every harness
const (
	ScreenWidth  = 120
	ScreenHeight = 40
)

// settleTime covers the longest continuation chain an action can schedule
const settleTime = 3 * time.Second

// TestHarness runs the overlay on a generated page, on a virtual clock, with the
// terminal preview drawn to a simulation screen
type TestHarness struct {
	Screen  tcell.SimulationScreen
	Doc     *snapshot.Document
	Clock   *loop.Virtual
	Config  *config.Config
	Overlay *overlay.Overlay
	App     *tui.App

	logs *bytes.Buffer
}

// NewTestHarness creates a harness over a page generated from page, using the
// default configuration
func NewTestHarness(t *testing.T, page snapshottest.Options) *TestHarness {
	return NewTestHarnessWithConfig(t, page, config.DefaultConfig())
}

// NewTestHarnessWithConfig creates a harness with a custom configuration
func NewTestHarnessWithConfig(t *testing.T, page snapshottest.Options, cfg *config.Config) *TestHarness {
	t.Helper()

	// Create simulation screen
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(ScreenWidth, ScreenHeight)

	table, err := locator.DefaultTable()
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := logging.New(&logs)

	doc := snapshottest.New(page)
	clock := loop.NewVirtual(time.Unix(0, 0))
	ov := overlay.New(doc, table, clock, cfg, logger)
	require.NoError(t, ov.Start())
	doc.ResetTrace()

	app := tui.NewApp(doc, logger)
	app.Attach(ov)

	return &TestHarness{
		Screen:  screen,
		Doc:     doc,
		Clock:   clock,
		Config:  cfg,
		Overlay: ov,
		App:     app,
		logs:    &logs,
	}
}

// Cleanup cleans up test resources
func (h *TestHarness) Cleanup() {
	h.Overlay.Stop()
	h.Screen.Fini()
}

// DrawComponent draws a component full screen
func (h *TestHarness) DrawComponent(p tview.Primitive) {
	h.Screen.Clear()
	p.SetRect(0, 0, ScreenWidth, ScreenHeight)
	p.Draw(h.Screen)
	h.Screen.Show()
}

// Draw refreshes the preview and draws it
func (h *TestHarness) Draw() {
	h.App.Refresh()
	h.DrawComponent(h.App.Root())
}

// GetScreenContent captures the current screen content as a string
func (h *TestHarness) GetScreenContent() string {
	width, height := h.Screen.Size()
	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			char, _, _, _ := h.Screen.GetContent(x, y)
			b.WriteRune(char)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// AssertScreenContains checks if the screen contains specific text
func (h *TestHarness) AssertScreenContains(t *testing.T, expectedText string) {
	t.Helper()
	assert.Contains(t, h.GetScreenContent(), expectedText)
}

// AssertScreenNotContains checks if the screen doesn't contain specific text
func (h *TestHarness) AssertScreenNotContains(t *testing.T, expectedText string) {
	t.Helper()
	assert.NotContains(t, h.GetScreenContent(), expectedText)
}

// SimulateKeyEvent delivers one terminal key to the preview and returns what the
// preview passed on, nil when the key was consumed
func (h *TestHarness) SimulateKeyEvent(key tcell.Key, ch rune, mod tcell.ModMask) *tcell.EventKey {
	return h.App.HandleKeyEvent(tcell.NewEventKey(key, ch, mod))
}

// Press types each rune of keys, without any time passing between them
func (h *TestHarness) Press(keys string) {
	for _, ch := range keys {
		h.SimulateKeyEvent(tcell.KeyRune, ch, tcell.ModNone)
	}
}

// Advance moves the virtual clock, running whatever falls due
func (h *TestHarness) Advance(d time.Duration) {
	h.Clock.Advance(d)
}

// Settle lets every pending continuation run. The periodic marker refresh keeps
// a task queued at all times, so the clock is advanced by a fixed span instead
// of draining.
func (h *TestHarness) Settle() {
	h.Clock.Advance(settleTime)
}

// Clicks counts activations of elements matching selector since the harness
// was created
func (h *TestHarness) Clicks(selector string) int {
	return snapshottest.Clicks(h.Doc, selector)
}

// CheckedRows returns the indices of the rows whose checkbox is checked
func (h *TestHarness) CheckedRows() []int {
	var out []int
	for i := 0; ; i++ {
		cb := snapshottest.Checkbox(h.Doc, i)
		if cb == nil {
			return out
		}
		if cb.Checked() {
			out = append(out, i)
		}
	}
}

// CursorIndex returns the raw cursor position
func (h *TestHarness) CursorIndex() int {
	return h.Overlay.Cursor.Index()
}

// MarkedRow returns the index of the row carrying the cursor marker, or -1
func (h *TestHarness) MarkedRow() int {
	marked := h.Overlay.Marker.Marked()
	if marked == nil {
		return -1
	}
	return dom.IndexOf(h.Overlay.Cursor.View().Current(), marked)
}

// Logs returns everything the overlay and preview logged
func (h *TestHarness) Logs() string {
	return h.logs.String()
}
