package config

import (
	"fmt"

	"github.com/derailed/tcell/v2"
)

// Color is a terminal color: a name tcell knows ("orange"), a hex triplet
// ("#ff8800") or "default"
type Color string

const (
	// DefaultColor represents a default color
	DefaultColor Color = "default"
)

// NewColor returns a new color
func NewColor(c string) Color {
	return Color(c)
}

// String returns color as string
func (c Color) String() string {
	if c.isHex() {
		return string(c)
	}
	if c == DefaultColor || c == "" {
		return "-"
	}
	col := c.Color().TrueColor().Hex()
	if col < 0 {
		return "-"
	}
	return fmt.Sprintf("#%06x", col)
}

func (c Color) isHex() bool {
	return len(c) == 7 && c[0] == '#'
}

// Color returns the tcell color, tcell.ColorDefault for "default" or empty
func (c Color) Color() tcell.Color {
	if c == DefaultColor || c == "" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// PreviewColors are the colors of the terminal preview
type PreviewColors struct {
	Cursor  Color `json:"cursor"`  // row under the cursor
	Checked Color `json:"checked"` // multi-selected rows
	Normal  Color `json:"normal"`
	Border  Color `json:"border"`
	Status  Color `json:"status"`
}

// DefaultPreviewColors returns the default preview palette
func DefaultPreviewColors() PreviewColors {
	return PreviewColors{
		Cursor:  NewColor("dodgerblue"),
		Checked: NewColor("orange"),
		Normal:  NewColor("white"),
		Border:  NewColor("gray"),
		Status:  NewColor("yellow"),
	}
}

// withDefaults fills colors left empty
func (p PreviewColors) withDefaults() PreviewColors {
	d := DefaultPreviewColors()
	p.Cursor = orColor(p.Cursor, d.Cursor)
	p.Checked = orColor(p.Checked, d.Checked)
	p.Normal = orColor(p.Normal, d.Normal)
	p.Border = orColor(p.Border, d.Border)
	p.Status = orColor(p.Status, d.Status)
	return p
}

func orColor(c, fallback Color) Color {
	if c == "" {
		return fallback
	}
	return c
}
