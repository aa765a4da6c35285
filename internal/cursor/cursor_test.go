package cursor

import (
	"testing"
	"time"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/ajramos/mailkeys/internal/interact"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/ajramos/mailkeys/internal/rows"
	"github.com/ajramos/mailkeys/internal/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCursor(t *testing.T, doc *snapshot.Document) (*Cursor, *loop.Virtual) {
	t.Helper()
	table, err := locator.DefaultTable()
	require.NoError(t, err)
	loc := locator.New(doc, table, nil)
	clock := loop.NewVirtual(time.Unix(0, 0))
	c := New(rows.NewView(loc), loc, style.NewMarker(doc), interact.New(nil), clock, config.DefaultDelays(), nil)
	return c, clock
}

func TestNew_StartsUnset(t *testing.T) {
	c, _ := newCursor(t, snapshottest.New(snapshottest.Options{Rows: 3}))
	assert.Equal(t, Unset, c.Index())
}

func TestCursor_CurrentRow(t *testing.T) {
	testCases := []struct {
		name    string
		opts    snapshottest.Options
		want    int
		wantNil bool
	}{
		{"no_rows", snapshottest.Options{}, Unset, true},
		{"adopts_first_row", snapshottest.Options{Rows: 4}, 0, false},
		{"adopts_first_checked", snapshottest.Options{Rows: 4, Checked: []int{2, 3}}, 2, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := snapshottest.New(tc.opts)
			c, _ := newCursor(t, doc)

			row := c.CurrentRow()
			if tc.wantNil {
				assert.Nil(t, row)
			} else {
				require.NotNil(t, row)
				assert.True(t, row.Same(snapshottest.Row(doc, tc.want)))
			}
			assert.Equal(t, tc.want, c.Index())
		})
	}
}

func TestCursor_CurrentRow_RevalidatesStaleIndex(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 5})
	c, _ := newCursor(t, doc)
	require.True(t, c.MoveTo(4))

	doc.Remove(snapshottest.Row(doc, 4))
	doc.Remove(snapshottest.Row(doc, 3))

	row := c.CurrentRow()
	require.NotNil(t, row)
	assert.Equal(t, 0, c.Index())
	assert.True(t, row.Same(snapshottest.Row(doc, 0)))
}

func TestCursor_Move_Wraparound(t *testing.T) {
	testCases := []struct {
		name  string
		rows  int
		start int
		dir   Direction
		want  int
	}{
		{"next_middle", 5, 2, Next, 3},
		{"next_wraps_to_first", 5, 4, Next, 0},
		{"prev_middle", 5, 2, Prev, 1},
		{"prev_wraps_to_last", 5, 0, Prev, 4},
		{"single_row_next", 1, 0, Next, 0},
		{"single_row_prev", 1, 0, Prev, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := snapshottest.New(snapshottest.Options{Rows: tc.rows})
			c, _ := newCursor(t, doc)
			require.True(t, c.MoveTo(tc.start))

			c.Move(tc.dir)

			assert.Equal(t, tc.want, c.Index())
			assert.True(t, snapshottest.Row(doc, tc.want).HasClass(style.MarkerClass))
		})
	}
}

func TestCursor_Move_IsCyclic(t *testing.T) {
	for n := 1; n <= 6; n++ {
		doc := snapshottest.New(snapshottest.Options{Rows: n})
		c, _ := newCursor(t, doc)
		for start := 0; start < n; start++ {
			require.True(t, c.MoveTo(start))
			for i := 0; i < n; i++ {
				c.Move(Next)
			}
			assert.Equal(t, start, c.Index(), "n=%d start=%d next", n, start)
			for i := 0; i < n; i++ {
				c.Move(Prev)
			}
			assert.Equal(t, start, c.Index(), "n=%d start=%d prev", n, start)
		}
	}
}

func TestCursor_Move_FromUnsetAdoptsRow(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3, Checked: []int{1}})
	c, _ := newCursor(t, doc)

	c.Move(Next)

	assert.Equal(t, 1, c.Index())
	assert.True(t, snapshottest.Row(doc, 1).HasClass(style.MarkerClass))
}

func TestCursor_Move_MarksScrollsAndFocuses(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	c, _ := newCursor(t, doc)
	require.True(t, c.MoveTo(0))
	doc.ResetTrace()

	c.Move(Next)

	row := snapshottest.Row(doc, 1)
	assert.True(t, row.HasClass(style.MarkerClass))
	assert.False(t, snapshottest.Row(doc, 0).HasClass(style.MarkerClass))
	assert.Len(t, doc.QueryAll("."+style.MarkerClass), 1)

	tabindex, ok := row.Attr("tabindex")
	assert.True(t, ok)
	assert.Equal(t, "-1", tabindex)
	assert.True(t, doc.ActiveElement().Same(row))

	var ops []string
	for _, e := range doc.TraceOps("class+", "scroll", "focus") {
		ops = append(ops, e.Op)
	}
	assert.Equal(t, []string{"class+", "scroll", "focus"}, ops)
}

func TestCursor_Move_NoRows(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{})
	c, _ := newCursor(t, doc)

	assert.NotPanics(t, func() { c.Move(Next) })
	assert.Equal(t, Unset, c.Index())
	assert.Empty(t, doc.TraceOps("class+", "click"))
}

func TestCursor_Move_DetailOpen(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 4, DetailOpen: true})
	c, clock := newCursor(t, doc)
	require.True(t, c.DetailOpen())
	require.NotNil(t, c.CurrentRow())
	require.Equal(t, 0, c.Index())

	c.Move(Next)

	// the message is closed right away, the next row opened only after the settle delay
	assert.Equal(t, 1, snapshottest.Clicks(doc, snapshottest.BackSelector))
	assert.False(t, c.DetailOpen())
	assert.Equal(t, 0, snapshottest.Clicks(doc, snapshottest.RowSelector))

	clock.Advance(config.DefaultDelays().SettleAfterClose() - time.Millisecond)
	assert.Equal(t, 0, snapshottest.Clicks(doc, snapshottest.RowSelector))

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, c.Index())
	clicks := doc.TraceOps("click")
	require.NotEmpty(t, clicks)
	assert.True(t, clicks[len(clicks)-1].Target.Same(snapshottest.Row(doc, 1)))
	assert.Empty(t, doc.TraceOps("class+"), "opening a row never sets the marker")
}

func TestCursor_MoveTo(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	c, _ := newCursor(t, doc)

	assert.True(t, c.MoveTo(10))
	assert.Equal(t, 2, c.Index())
	assert.True(t, c.MoveTo(-3))
	assert.Equal(t, 0, c.Index())

	snapshottest.SetDetailOpen(doc, true)
	assert.False(t, c.MoveTo(1))
	assert.Equal(t, 0, c.Index())
}

func TestCursor_ToggleCurrent_IdempotentInPairs(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(doc *snapshot.Document)
	}{
		{"direct_click", func(*snapshot.Document) {}},
		{"click_ignored", func(doc *snapshot.Document) { doc.IgnoreClick(snapshottest.CheckboxSelector) }},
		{"click_fails", func(doc *snapshot.Document) { doc.FailOn(snapshottest.CheckboxSelector, "click") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := snapshottest.New(snapshottest.Options{Rows: 3})
			tc.setup(doc)
			c, _ := newCursor(t, doc)
			require.True(t, c.MoveTo(1))
			cb := snapshottest.Checkbox(doc, 1)
			before := cb.Checked()

			assert.True(t, c.ToggleCurrent())
			assert.NotEqual(t, before, cb.Checked())

			assert.True(t, c.ToggleCurrent())
			assert.Equal(t, before, cb.Checked())
			assert.Equal(t, 1, c.Index())
		})
	}
}

func TestCursor_ToggleCurrent_RemarksAfterDelay(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	c, clock := newCursor(t, doc)
	require.True(t, c.MoveTo(2))
	row := snapshottest.Row(doc, 2)

	// a host re-render dropping our class
	row.RemoveClass(style.MarkerClass)
	require.True(t, c.ToggleCurrent())
	assert.False(t, row.HasClass(style.MarkerClass))

	clock.Advance(config.DefaultDelays().ToggleRemark())
	assert.True(t, row.HasClass(style.MarkerClass))
}

func TestCursor_ToggleCurrent_NoCheckbox(t *testing.T) {
	doc, err := snapshot.ParseString(`<html><body><div class="item-container">First</div></body></html>`, snapshottest.Host)
	require.NoError(t, err)
	c, clock := newCursor(t, doc)

	assert.False(t, c.ToggleCurrent())
	assert.Equal(t, 0, clock.Pending())
}

func TestCursor_ToggleCurrent_NoRows(t *testing.T) {
	c, _ := newCursor(t, snapshottest.New(snapshottest.Options{}))
	assert.False(t, c.ToggleCurrent())
}

func TestCursor_Invalidate(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 5})
	c, _ := newCursor(t, doc)

	require.True(t, c.MoveTo(1))
	doc.Remove(snapshottest.Row(doc, 4))
	c.Invalidate()
	assert.Equal(t, 1, c.Index(), "an index still in range is kept")

	require.True(t, c.MoveTo(3))
	doc.Remove(snapshottest.Row(doc, 3))
	c.Invalidate()
	assert.Equal(t, Unset, c.Index())
}

func TestCursor_Reassert(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	c, _ := newCursor(t, doc)

	c.Reassert()
	assert.Empty(t, doc.TraceOps("class+"), "an unset cursor marks nothing")

	require.True(t, c.MoveTo(1))
	row := snapshottest.Row(doc, 1)
	row.RemoveClass(style.MarkerClass)
	doc.ResetTrace()

	c.Reassert()
	assert.True(t, row.HasClass(style.MarkerClass))

	doc.ResetTrace()
	c.Reassert()
	assert.Empty(t, doc.TraceOps("class+", "class-"), "a present marker is left alone")
}

func TestCursor_CloseDetail(t *testing.T) {
	t.Run("back_button", func(t *testing.T) {
		doc := snapshottest.New(snapshottest.Options{Rows: 2, DetailOpen: true})
		c, _ := newCursor(t, doc)

		assert.True(t, c.CloseDetail())
		assert.Equal(t, 1, snapshottest.Clicks(doc, snapshottest.BackSelector))
		assert.False(t, c.DetailOpen())
	})

	t.Run("escape_fallback", func(t *testing.T) {
		doc := snapshottest.New(snapshottest.Options{Rows: 2, DetailOpen: true, NoToolbar: true})
		c, _ := newCursor(t, doc)

		assert.True(t, c.CloseDetail())
		var details []string
		for _, e := range doc.TraceOps("dispatch") {
			details = append(details, e.Detail)
		}
		assert.Contains(t, details, "keydown:Escape")
		assert.False(t, c.DetailOpen())
	})
}

func TestCursor_Open(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 2, OpenOnRowClick: true})
	c, _ := newCursor(t, doc)

	assert.False(t, c.Open(nil))
	assert.True(t, c.Open(snapshottest.Row(doc, 1)))
	assert.True(t, c.DetailOpen())
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "next", Next.String())
	assert.Equal(t, "prev", Prev.String())
}
