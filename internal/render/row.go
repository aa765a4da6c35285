package render

import (
	"fmt"
	"strings"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/derailed/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Row is what the preview knows about one message row
type Row struct {
	Index   int
	Text    string
	Checked bool
	Cursor  bool
}

// RowColorer picks the list colors for a row
type RowColorer struct {
	CursorColor  tcell.Color
	CheckedColor tcell.Color
	NormalColor  tcell.Color
}

// NewRowColorer creates a colorer with default colors
func NewRowColorer() *RowColorer {
	return &RowColorer{
		CursorColor:  tcell.ColorDodgerBlue,
		CheckedColor: tcell.ColorOrange,
		NormalColor:  tcell.ColorWhite,
	}
}

// NewRowColorerFrom creates a colorer from a configured palette
func NewRowColorerFrom(c config.PreviewColors) *RowColorer {
	return &RowColorer{
		CursorColor:  c.Cursor.Color(),
		CheckedColor: c.Checked.Color(),
		NormalColor:  c.Normal.Color(),
	}
}

// Color returns the foreground for r; the cursor wins over the checked state
func (rc *RowColorer) Color(r Row) tcell.Color {
	switch {
	case r.Cursor:
		return rc.CursorColor
	case r.Checked:
		return rc.CheckedColor
	}
	return rc.NormalColor
}

// RowRenderer formats rows into fixed-width list lines
type RowRenderer struct {
	colorer *RowColorer
}

// NewRowRenderer creates a renderer with the default colorer
func NewRowRenderer() *RowRenderer {
	return &RowRenderer{colorer: NewRowColorer()}
}

// Colorer returns the colorer in use
func (rr *RowRenderer) Colorer() *RowColorer { return rr.colorer }

// SetColorer replaces the colorer; nil restores the defaults
func (rr *RowRenderer) SetColorer(rc *RowColorer) {
	if rc == nil {
		rc = NewRowColorer()
	}
	rr.colorer = rc
}

// FormatRow renders "> [x] subject   #3" fitted to maxWidth
func (rr *RowRenderer) FormatRow(r Row, maxWidth int) (string, tcell.Color) {
	// Keep a minimum width for usability
	if maxWidth < 24 {
		maxWidth = 24
	}
	marker := "  "
	if r.Cursor {
		marker = "> "
	}
	box := "[ ] "
	if r.Checked {
		box = "[x] "
	}
	index := fmt.Sprintf("#%d", r.Index+1)
	indexWidth := 5
	textWidth := maxWidth - runewidth.StringWidth(marker) - runewidth.StringWidth(box) - indexWidth - 1
	if textWidth < 8 {
		textWidth = 8
	}
	text := SanitizeForTerminal(collapseSpace(r.Text))
	line := marker + box + FitWidth(text, textWidth) + " " + RightFit(index, indexWidth)
	return line, rr.colorer.Color(r)
}

// FitWidth truncates by display width with an ellipsis and pads on the right
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, width, "...")
	pad := width - runewidth.StringWidth(s)
	if pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// RightFit truncates from the left and right-aligns to width
func RightFit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if over := runewidth.StringWidth(s) - width; over > 0 {
		s = runewidth.TruncateLeft(s, over, "")
	}
	pad := width - runewidth.StringWidth(s)
	if pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
