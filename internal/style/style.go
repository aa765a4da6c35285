// Package style owns the visual cursor marker
package style

import (
	"github.com/ajramos/mailkeys/internal/dom"
)

const (
	// MarkerClass is applied to the row under the cursor
	MarkerClass = "mk-cursor"
	// StyleID guards the injected stylesheet against double insertion
	StyleID = "mk-cursor-style"
)

// CSS draws an accent bar before the cursor row
const CSS = `.mk-cursor { position: relative; background-color: rgba(66, 133, 244, 0.08) !important; }
.mk-cursor::before { content: ""; position: absolute; left: 0; top: 0; bottom: 0; width: 4px; background-color: #4285f4; z-index: 1; }`

// Marker applies and clears the cursor marker on rows
type Marker struct {
	doc dom.Document
}

// NewMarker creates a marker for doc
func NewMarker(doc dom.Document) *Marker {
	return &Marker{doc: doc}
}

// Inject inserts the stylesheet once; later calls are no-ops
func (m *Marker) Inject() error {
	if m.doc.ElementByID(StyleID) != nil {
		return nil
	}
	return m.doc.AppendStyle(StyleID, CSS)
}

// ClearAll removes the marker from every element carrying it
func (m *Marker) ClearAll() {
	for _, el := range m.doc.QueryAll("." + MarkerClass) {
		el.RemoveClass(MarkerClass)
	}
}

// Mark moves the marker to row
func (m *Marker) Mark(row dom.Element) {
	if row == nil {
		return
	}
	for _, el := range m.doc.QueryAll("." + MarkerClass) {
		if !el.Same(row) {
			el.RemoveClass(MarkerClass)
		}
	}
	row.AddClass(MarkerClass)
}

// Marked returns the element currently carrying the marker, if any
func (m *Marker) Marked() dom.Element {
	return m.doc.Query("." + MarkerClass)
}
