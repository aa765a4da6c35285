package helpers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/derailed/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"
)

// MockCounter records the operations the overlay reports
type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Increment(op string) error {
	args := m.Called(op)
	return args.Error(0)
}

// BulkOperationTest defines a test for actions on a multi-selection
type BulkOperationTest struct {
	Name     string
	Page     snapshottest.Options
	Keys     string
	Selector string
	// Before is how long after the key press the control must still be untouched,
	// After when it must have been clicked exactly once
	Before   time.Duration
	After    time.Duration
	Validate func(*testing.T, *TestHarness)
}

// TestBulkOperations checks the delay chain of each list action path
func TestBulkOperations(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []BulkOperationTest{
		{
			Name:     "bulk_archive_multiple_messages",
			Page:     snapshottest.Options{Rows: 5, Checked: []int{0, 1, 2}},
			Keys:     "e",
			Selector: snapshottest.ArchiveSelector,
			Before:   200 * time.Millisecond,
			After:    300 * time.Millisecond,
			Validate: func(t *testing.T, h *TestHarness) {
				assert.Equal(t, []int{0, 1, 2}, h.CheckedRows())
			},
		},
		{
			Name:     "single_selected_message",
			Page:     snapshottest.Options{Rows: 3, Checked: []int{1}},
			Keys:     "#",
			Selector: snapshottest.DeleteSelector,
			Before:   100 * time.Millisecond,
			After:    150 * time.Millisecond,
			Validate: func(t *testing.T, h *TestHarness) {
				assert.Equal(t, []int{1}, h.CheckedRows())
			},
		},
		{
			Name:     "bulk_label_application",
			Page:     snapshottest.Options{Rows: 3, Checked: []int{0, 2}},
			Keys:     "l",
			Selector: snapshottest.LabelSelector,
			Before:   200 * time.Millisecond,
			After:    300 * time.Millisecond,
		},
		{
			Name:     "bulk_delete_with_message_open",
			Page:     snapshottest.Options{Rows: 4, Checked: []int{0, 2}, DetailOpen: true},
			Keys:     "#",
			Selector: snapshottest.DeleteSelector,
			Before:   600 * time.Millisecond,
			After:    700 * time.Millisecond,
			Validate: func(t *testing.T, h *TestHarness) {
				// the view is closed first and the selection re-asserted on the
				// first selected row, away from its checkbox
				assert.Equal(t, 1, h.Clicks(snapshottest.BackSelector))
				assert.Equal(t, 1, h.Clicks(`[data-testid="message-item:0"]`))
				assert.Equal(t, []int{0, 2}, h.CheckedRows())
				assert.False(t, h.Overlay.Cursor.DetailOpen())
			},
		},
		{
			Name:     "single_selected_with_message_open",
			Page:     snapshottest.Options{Rows: 3, Checked: []int{1}, DetailOpen: true},
			Keys:     "e",
			Selector: snapshottest.ArchiveSelector,
			Before:   400 * time.Millisecond,
			After:    450 * time.Millisecond,
			Validate: func(t *testing.T, h *TestHarness) {
				assert.Equal(t, 1, h.Clicks(`[data-testid="message-item:1"]`))
				assert.Zero(t, h.Clicks(snapshottest.BackSelector))
				assert.Equal(t, []int{1}, h.CheckedRows())
			},
		},
		{
			Name:     "keyboard_built_selection",
			Page:     snapshottest.Options{Rows: 4},
			Keys:     "jxjx#",
			Selector: snapshottest.DeleteSelector,
			Before:   200 * time.Millisecond,
			After:    300 * time.Millisecond,
			Validate: func(t *testing.T, h *TestHarness) {
				assert.Equal(t, []int{0, 1}, h.CheckedRows())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			h := NewTestHarness(t, tt.Page)
			defer h.Cleanup()

			h.Press(tt.Keys)
			h.Advance(tt.Before)
			assert.Zero(t, h.Clicks(tt.Selector), "clicked before %v", tt.Before)
			h.Advance(tt.After - tt.Before)
			assert.Equal(t, 1, h.Clicks(tt.Selector), "not clicked by %v", tt.After)

			h.Settle()
			assert.Equal(t, 1, h.Clicks(tt.Selector), "clicked again")
			if tt.Validate != nil {
				tt.Validate(t, h)
			}
		})
	}
}

// TestBulkOperationEdgeCases covers list actions with nothing to act on
func TestBulkOperationEdgeCases(t *testing.T) {
	t.Run("no_rows", func(t *testing.T) {
		h := NewTestHarness(t, snapshottest.Options{})
		defer h.Cleanup()

		h.Press("x#e")
		h.Settle()
		assert.Empty(t, h.Doc.TraceOps("click", "checked"))
		assert.Contains(t, h.App.StatusText(), "archive skipped")
	})

	t.Run("missing_toolbar", func(t *testing.T) {
		h := NewTestHarness(t, snapshottest.Options{Rows: 2, NoToolbar: true})
		defer h.Cleanup()

		h.Press("e")
		h.Settle()
		// the cursor row is still selected; the action itself just does not happen
		assert.Equal(t, []int{0}, h.CheckedRows())
		assert.Contains(t, h.Logs(), "archive: control not found")
	})

	t.Run("archive_target_rechecked_after_delay", func(t *testing.T) {
		h := NewTestHarness(t, snapshottest.Options{Rows: 3, Checked: []int{0, 1}})
		defer h.Cleanup()

		h.Press("e")
		// the toolbar goes away before the delayed step runs
		h.Doc.Remove(h.Doc.Find(snapshottest.ArchiveSelector))
		h.Settle()
		assert.Empty(t, h.Doc.TraceOps("click"))
	})

	t.Run("label_needs_two_rows", func(t *testing.T) {
		h := NewTestHarness(t, snapshottest.Options{Rows: 3, Checked: []int{2}})
		defer h.Cleanup()

		assert.NotNil(t, h.SimulateKeyEvent(tcell.KeyRune, 'l', tcell.ModNone))
		h.Settle()
		assert.Zero(t, h.Clicks(snapshottest.LabelSelector))
	})
}

// TestBulkOperationCounters checks that operation names, and only those, reach
// the usage counter
func TestBulkOperationCounters(t *testing.T) {
	h := NewTestHarness(t, snapshottest.Options{Rows: 3})
	defer h.Cleanup()

	counter := &MockCounter{}
	counter.On("Increment", "next").Return(nil).Twice()
	counter.On("Increment", "toggle").Return(nil).Once()
	counter.On("Increment", "archive").Return(errors.New("disk full")).Once()
	h.Overlay.SetCounter(counter)

	h.Press("jjxe")
	h.Settle()

	counter.AssertExpectations(t)
	for _, call := range counter.Calls {
		assert.NotContains(t, call.Arguments.String(0), "Subject")
	}
	assert.Equal(t, map[string]int{"next": 2, "toggle": 1, "archive": 1}, h.Overlay.Counts())
	assert.Contains(t, h.Logs(), "stats: disk full")
}

// TestBulkOperationLogsArePrivate checks that no message text reaches the log
func TestBulkOperationLogsArePrivate(t *testing.T) {
	h := NewTestHarness(t, snapshottest.Options{Rows: 4, Checked: []int{1, 2}, DetailOpen: true})
	defer h.Cleanup()

	h.Press("jjx#rgiu/")
	h.Settle()

	logs := h.Logs()
	assert.NotEmpty(t, logs)
	assert.False(t, strings.Contains(logs, "Subject"), logs)
	assert.False(t, strings.Contains(logs, "Opened message"), logs)
}
