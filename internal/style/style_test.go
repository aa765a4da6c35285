package style

import (
	"testing"

	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInject_Once(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 1})
	m := NewMarker(doc)

	require.NoError(t, m.Inject())
	require.NoError(t, m.Inject())

	assert.Len(t, doc.QueryAll("style#"+StyleID), 1)
	assert.Contains(t, doc.Render(), "."+MarkerClass+"::before")
}

func TestMark_MovesMarker(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	m := NewMarker(doc)
	assert.Nil(t, m.Marked())

	m.Mark(snapshottest.Row(doc, 0))
	m.Mark(snapshottest.Row(doc, 2))

	assert.Len(t, doc.QueryAll("."+MarkerClass), 1)
	require.NotNil(t, m.Marked())
	assert.True(t, m.Marked().Same(snapshottest.Row(doc, 2)))

	m.Mark(nil)
	assert.True(t, m.Marked().Same(snapshottest.Row(doc, 2)), "nil leaves the marker alone")
}

func TestMark_Idempotent(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 2})
	m := NewMarker(doc)
	row := snapshottest.Row(doc, 1)

	m.Mark(row)
	doc.ResetTrace()
	m.Mark(row)
	assert.Empty(t, doc.TraceOps("class+", "class-"), "re-marking the same row writes nothing")
}

func TestClearAll(t *testing.T) {
	doc := snapshottest.New(snapshottest.Options{Rows: 3})
	m := NewMarker(doc)
	// a host re-render can leave stale markers behind
	snapshottest.Row(doc, 0).AddClass(MarkerClass)
	snapshottest.Row(doc, 1).AddClass(MarkerClass)

	m.ClearAll()
	assert.Empty(t, doc.QueryAll("."+MarkerClass))
	assert.Nil(t, m.Marked())
}
