package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

func TestStatusGlyph(t *testing.T) {
	assert.Equal(t, "·", statusGlyph(session.JobAbsent))
	assert.Equal(t, "…", statusGlyph(session.JobPending))
	assert.Equal(t, "✓", statusGlyph(session.JobSucceeded))
	assert.Equal(t, "✗", statusGlyph(session.JobFailed))
}

func TestRangeLabel(t *testing.T) {
	p := session.NewPager(20)
	assert.Contains(t, components.SanitizeText(rangeLabel(p)), "comments 0-0 / 0")

	p.Total = 45
	p.Offset = 40
	p.Filter = "price"
	label := components.SanitizeText(rangeLabel(p))
	assert.Contains(t, label, "comments 41-45 / 45")
	assert.Contains(t, label, "limit 20")
	assert.Contains(t, label, `filter "price"`)
}

func TestNoteTitleFallsBackToID(t *testing.T) {
	assert.Equal(t, "Hello", noteTitle(api.Note{NoteID: "n1", Title: " Hello "}))
	assert.Equal(t, "n1", noteTitle(api.Note{NoteID: "n1", Title: "  "}))
}

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, "", formatMillis(nil))
	zero := int64(0)
	assert.Equal(t, "", formatMillis(&zero))
	ms := int64(1700000000000)
	assert.Len(t, formatMillis(&ms), len(tsLayout))
}

func TestNotesViewWithoutDataDoesNotPanic(t *testing.T) {
	m := NewNotesModel(session.NewDesk(nil), keyMap{})
	m.width = 80
	assert.NotPanics(t, func() { _ = m.View() })
	assert.Contains(t, m.View(), "No notes.")
}
