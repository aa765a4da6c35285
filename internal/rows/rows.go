// Package rows computes the message set view: the ordered rows the host currently
// renders. Nothing is cached; every call re-reads the document.
package rows

import (
	"strings"

	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/locator"
)

// MaxAncestorLevels bounds how far above a row a checkbox may sit
const MaxAncestorLevels = 3

// View produces the current row sequence
type View struct {
	loc *locator.Service
}

// NewView creates a view over the locator's document and row strategies
func NewView(loc *locator.Service) *View {
	return &View{loc: loc}
}

// Current returns the visible rows with non-empty text, from the first row
// strategy that yields at least one. Strategies are never mixed.
func (v *View) Current() []dom.Element {
	doc := v.loc.Document()
	for _, sel := range v.loc.Table().Rows {
		var out []dom.Element
		for _, el := range doc.QueryAll(sel) {
			if dom.Visible(el) && strings.TrimSpace(el.Text()) != "" {
				out = append(out, el)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Checked reports whether the host shows row as multi-selected: a checked
// checkbox belonging to the row, or a selection marker on the row itself
func (v *View) Checked(row dom.Element, all []dom.Element) bool {
	if row == nil {
		return false
	}
	if cb := v.Checkbox(row, all); cb != nil && cb.Checked() {
		return true
	}
	for _, sel := range v.loc.Table().CheckedMarkers {
		if row.Matches(sel) {
			return true
		}
	}
	return false
}

// Selected returns the checked subsequence of the current rows
func (v *View) Selected() []dom.Element {
	all := v.Current()
	var out []dom.Element
	for _, row := range all {
		if v.Checked(row, all) {
			out = append(out, row)
		}
	}
	return out
}

// Checkbox finds the checkable control for row inside the row or up to
// MaxAncestorLevels above it. An ancestor that also holds another row is never
// searched, so a control can't be attributed to the wrong row.
func (v *View) Checkbox(row dom.Element, all []dom.Element) dom.Element {
	scope := row
	for level := 0; level <= MaxAncestorLevels && scope != nil; level++ {
		if level > 0 && holdsOtherRow(scope, row, all) {
			return nil
		}
		for _, sel := range v.loc.Table().Checkbox {
			if cb := scope.Query(sel); cb != nil {
				return cb
			}
			if level == 0 && row.Matches(sel) {
				return row
			}
		}
		scope = scope.Parent()
	}
	return nil
}

func holdsOtherRow(scope, row dom.Element, all []dom.Element) bool {
	for _, other := range all {
		if other.Same(row) {
			continue
		}
		if scope.Contains(other) {
			return true
		}
	}
	return false
}
