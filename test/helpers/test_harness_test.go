package helpers

import (
	"testing"
	"time"

	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTestHarness_Creation tests basic test harness creation
func TestTestHarness_Creation(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 3})
	defer harness.Cleanup()

	require.NotNil(t, harness.Screen)
	require.NotNil(t, harness.Doc)
	require.NotNil(t, harness.Clock)
	require.NotNil(t, harness.Overlay)
	require.NotNil(t, harness.App)
	assert.True(t, harness.Overlay.Running())

	// Verify screen dimensions
	width, height := harness.Screen.Size()
	assert.Equal(t, ScreenWidth, width)
	assert.Equal(t, ScreenHeight, height)

	// Starting the overlay leaves no page effects behind
	assert.Empty(t, harness.Doc.Trace())
	assert.Contains(t, harness.Logs(), "overlay started")
}

// TestTestHarness_ComponentDrawing tests drawing components to the simulation screen
func TestTestHarness_ComponentDrawing(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 1})
	defer harness.Cleanup()

	textView := tview.NewTextView()
	textView.SetText("Hello, Test World!")
	harness.DrawComponent(textView)

	harness.AssertScreenContains(t, "Hello, Test World!")
	harness.AssertScreenNotContains(t, "Goodbye")
}

// TestTestHarness_Draw tests the preview layout on the simulation screen
func TestTestHarness_Draw(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 2})
	defer harness.Cleanup()

	harness.Draw()
	harness.AssertScreenContains(t, "Messages")
	harness.AssertScreenContains(t, "Subject 0")
	harness.AssertScreenContains(t, "Subject 1")
	harness.AssertScreenContains(t, "rows: 2")
}

// TestTestHarness_KeyEvents tests key event simulation
func TestTestHarness_KeyEvents(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 2})
	defer harness.Cleanup()

	// Bound keys are consumed by the overlay
	assert.Nil(t, harness.SimulateKeyEvent(tcell.KeyRune, 'j', tcell.ModNone))

	// Unbound keys reach the terminal
	event := harness.SimulateKeyEvent(tcell.KeyRune, 'z', tcell.ModNone)
	require.NotNil(t, event)
	assert.Equal(t, 'z', event.Rune())

	// Keys with no browser equivalent pass through untouched
	event = harness.SimulateKeyEvent(tcell.KeyF5, 0, tcell.ModNone)
	require.NotNil(t, event)
	assert.Equal(t, tcell.KeyF5, event.Key())
}

// TestTestHarness_Clock tests that delays only elapse when the harness advances
func TestTestHarness_Clock(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 2})
	defer harness.Cleanup()

	start := harness.Clock.Now()
	harness.Press("e")

	// archive selects the cursor row right away and clicks the toolbar later
	assert.Equal(t, []int{0}, harness.CheckedRows())
	assert.Zero(t, harness.Clicks(snapshottest.ArchiveSelector))

	harness.Advance(100 * time.Millisecond)
	assert.Zero(t, harness.Clicks(snapshottest.ArchiveSelector))

	harness.Settle()
	assert.Equal(t, 1, harness.Clicks(snapshottest.ArchiveSelector))
	assert.Equal(t, settleTime+100*time.Millisecond, harness.Clock.Now().Sub(start))
}

// TestTestHarness_CheckedRows tests reading the checkbox state of the page
func TestTestHarness_CheckedRows(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 4, Checked: []int{1, 3}})
	defer harness.Cleanup()

	assert.Equal(t, []int{1, 3}, harness.CheckedRows())

	empty := NewTestHarness(t, snapshottest.Options{Rows: 0})
	defer empty.Cleanup()
	assert.Empty(t, empty.CheckedRows())
}

// TestTestHarness_Cleanup tests that cleanup detaches the overlay
func TestTestHarness_Cleanup(t *testing.T) {
	harness := NewTestHarness(t, snapshottest.Options{Rows: 2})
	harness.Cleanup()

	assert.False(t, harness.Overlay.Running())
	harness.Doc.ResetTrace()
	harness.Press("jx")
	assert.Empty(t, harness.CheckedRows())
	assert.Empty(t, harness.Doc.Trace())
}
