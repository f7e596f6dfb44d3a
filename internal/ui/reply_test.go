package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

func TestReplyTabSuggestsForFreeText(t *testing.T) {
	be := newFakeBackend()
	app := startApp(t, be, nil)

	app = press(t, app, runeKey('2'))
	app = open(app, runeKey('e'))
	require.True(t, app.typing())
	app = typeText(app, "is this ok for sensitive skin")
	app = press(t, app, keyEnter)

	require.Len(t, be.suggestions, 1)
	in := be.suggestions[0]
	assert.Equal(t, testKBID, in.KBID)
	assert.Equal(t, "is this ok for sensitive skin", in.Comment.Content)
	assert.Equal(t, "operator", in.Comment.Nickname)
	assert.Regexp(t, `^tui-[0-9a-f-]{36}$`, in.Comment.CommentID)
	assert.True(t, in.InjectSales)

	assert.False(t, app.typing())
	assert.Contains(t, plainView(app), "Thanks operator, DM us for today's price!")
}

func TestReplyTabScoresLead(t *testing.T) {
	be := newFakeBackend()
	app := startApp(t, be, nil)

	app = press(t, app, runeKey('2'))
	app.reply.fields[replyFieldComment].SetValue("how much")
	app = press(t, app, runeKey('L'))

	require.NotNil(t, app.reply.score)
	assert.Equal(t, "medium", app.reply.score.Level)
	assert.Contains(t, plainView(app), "asks price")
}

func TestReplyWithoutKnowledgeBaseSendsNothing(t *testing.T) {
	m := NewReplyModel(nil, session.NewDesk(nil))
	m.fields[replyFieldComment].SetValue("hello")

	m, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Equal(t, session.PreconditionNoKnowledgeBase, m.err)
	assert.False(t, m.loading)
}

func TestReplyRequiresText(t *testing.T) {
	m := NewReplyModel(nil, session.NewDesk(nil))

	m, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Equal(t, "comment text is required", m.err)
}

func TestReplyDropsSupersededResult(t *testing.T) {
	m := NewReplyModel(nil, session.NewDesk(nil))
	m.seq = 2
	m.loading = true

	m, _ = m.Update(replySuggestedMsg{seq: 1, res: &api.ReplySuggestion{Reply: "old"}})
	assert.True(t, m.loading)
	assert.Nil(t, m.result)

	m, _ = m.Update(replySuggestedMsg{seq: 2, res: &api.ReplySuggestion{Reply: "new"}})
	assert.False(t, m.loading)
	require.NotNil(t, m.result)
	assert.Equal(t, "new", m.result.Reply)
}
