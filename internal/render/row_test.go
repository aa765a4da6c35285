package render

import (
	"strings"
	"testing"

	"github.com/derailed/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Quarterly report", "Quarterly report"},
		{"punctuation", "Line \u2026 with \u2013 unicode", "Line ... with - unicode"},
		{"quotes", "\u201cquoted\u201d and \u2018single\u2019", "\"quoted\" and 'single'"},
		{"zero_width", "in\u200bvis\ufeffible", "invisible"},
		{"nbsp", "a\u00a0b", "a b"},
		{"control", "tab\there\x07", "tabhere"},
		{"emoji_dropped", "ship it \U0001F680", "ship it "},
		{"bullet", "\u2022 item", "-  item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeForTerminal(tt.in))
		})
	}
}

func TestFitWidth(t *testing.T) {
	assert.Equal(t, "", FitWidth("anything", 0))
	assert.Equal(t, "abc   ", FitWidth("abc", 6))
	assert.Equal(t, "abc...", FitWidth("abcdefghij", 6))

	// Wide runes count two cells
	got := FitWidth("日本語のメール", 7)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 7)
	assert.True(t, strings.HasSuffix(strings.TrimRight(got, " "), "..."))
}

func TestRightFit(t *testing.T) {
	assert.Equal(t, "", RightFit("#1", 0))
	assert.Equal(t, "   #1", RightFit("#1", 5))
	assert.Equal(t, "#1234", RightFit("#1234", 5))
	assert.Equal(t, "23456", RightFit("#123456", 5))
}

func TestRowColorer_Color(t *testing.T) {
	rc := NewRowColorer()
	assert.Equal(t, rc.NormalColor, rc.Color(Row{}))
	assert.Equal(t, rc.CheckedColor, rc.Color(Row{Checked: true}))
	assert.Equal(t, rc.CursorColor, rc.Color(Row{Checked: true, Cursor: true}))
}

func TestRowRenderer_FormatRow(t *testing.T) {
	rr := NewRowRenderer()

	line, color := rr.FormatRow(Row{Index: 2, Text: "  Invoice\n   March  ", Checked: true, Cursor: true}, 60)
	assert.Equal(t, 60, runewidth.StringWidth(line))
	assert.True(t, strings.HasPrefix(line, "> [x] Invoice March"))
	assert.True(t, strings.HasSuffix(line, "#3"))
	assert.Equal(t, rr.Colorer().CursorColor, color)

	line, color = rr.FormatRow(Row{Index: 0, Text: "Lunch?"}, 60)
	assert.True(t, strings.HasPrefix(line, "  [ ] Lunch?"))
	assert.Equal(t, tcell.ColorWhite, color)
}

func TestRowRenderer_FormatRow_MinimumWidth(t *testing.T) {
	rr := NewRowRenderer()
	line, _ := rr.FormatRow(Row{Index: 9, Text: strings.Repeat("long subject ", 10)}, 5)
	assert.Equal(t, 24, runewidth.StringWidth(line))
	assert.Contains(t, line, "...")
	assert.True(t, strings.HasSuffix(line, "#10"))
}
