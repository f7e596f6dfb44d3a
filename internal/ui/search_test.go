package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

func TestSearchRunsAgainstSelectedKnowledgeBase(t *testing.T) {
	be := newFakeBackend()
	app := startApp(t, be, nil)

	app = press(t, app, runeKey('3'))
	app = open(app, runeKey('/'))
	require.True(t, app.typing())
	app = typeText(app, "shipping")
	app = press(t, app, keyEnter)

	require.Len(t, be.searches, 1)
	assert.Equal(t, api.SearchInput{Query: "shipping", TopK: session.SuggestionTopK}, be.searches[0])
	view := plainView(app)
	assert.Contains(t, view, "1 hits · kb v1 · 7ms")
	assert.Contains(t, view, "Serum ships within 48h.")

	app = press(t, app, runeKey('t'))
	require.Len(t, be.searches, 2)
	assert.Equal(t, 10, be.searches[1].TopK)
}

func TestSearchDropsStaleResults(t *testing.T) {
	m := NewSearchModel(nil, session.NewDesk(nil), keyMap{})
	m.pending = searchKey{kbID: testKBID, query: "new", topK: 5}
	m.loading = true

	stale := searchResultsMsg{
		key:    searchKey{kbID: testKBID, query: "old", topK: 5},
		result: &api.SearchResult{Hits: []api.SearchHit{{ChunkID: "x"}}},
	}
	m, _ = m.Update(stale)
	assert.True(t, m.loading)
	assert.Nil(t, m.result)

	m, _ = m.Update(searchResultsMsg{key: m.pending, err: errors.New("boom")})
	assert.False(t, m.loading)
	assert.Equal(t, "boom", m.err)
}

func TestSearchWithoutKnowledgeBaseShowsPrecondition(t *testing.T) {
	m := NewSearchModel(nil, session.NewDesk(nil), keyMap{})
	m.input.SetValue("price")

	m, cmd := m.search()
	assert.Nil(t, cmd)
	assert.Equal(t, session.PreconditionNoKnowledgeBase, m.err)
	assert.False(t, m.loading)
}

func TestNextTopKCycles(t *testing.T) {
	assert.Equal(t, 10, nextTopK(5))
	assert.Equal(t, 3, nextTopK(20))
	assert.Equal(t, 3, nextTopK(7))
}
