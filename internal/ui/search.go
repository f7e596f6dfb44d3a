package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

var searchTopKs = []int{3, 5, 10, 20}

// searchKey identifies one search request; results for any other key are
// stale.
type searchKey struct {
	kbID  string
	query string
	topK  int
}

type searchResultsMsg struct {
	key    searchKey
	result *api.SearchResult
	err    error
}

// SearchModel queries the selected knowledge base.
type SearchModel struct {
	client  *api.Client
	desk    *session.Desk
	keys    keyMap
	input   textinput.Model
	topK    int
	pending searchKey
	loading bool
	result  *api.SearchResult
	err     string
	list    *components.List
	width   int
	height  int
}

// NewSearchModel builds the knowledge search tab.
func NewSearchModel(client *api.Client, desk *session.Desk, keys keyMap) SearchModel {
	input := textinput.New()
	input.Placeholder = "search the knowledge base"
	input.CharLimit = 200
	input.Width = 50
	return SearchModel{
		client: client,
		desk:   desk,
		keys:   keys,
		input:  input,
		topK:   session.SuggestionTopK,
		list:   components.NewList(8),
	}
}

func (m SearchModel) Init() tea.Cmd {
	return nil
}

func (m SearchModel) typing() bool {
	return m.input.Focused()
}

func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultsMsg:
		if msg.key != m.pending {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.result = nil
			m.list.SetItems(nil)
			return m, nil
		}
		m.err = ""
		m.result = msg.result
		ids := make([]string, len(msg.result.Hits))
		for i, h := range msg.result.Hits {
			ids[i] = h.ChunkID
		}
		m.list.SetItems(ids)
		return m, nil
	case tea.KeyMsg:
		if m.input.Focused() {
			switch {
			case isBack(msg):
				m.input.Blur()
				return m, nil
			case isEnter(msg):
				m.input.Blur()
				return m.search()
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch {
		case isKey(msg, "/", "e"):
			cmd := m.input.Focus()
			return m, cmd
		case isEnter(msg):
			return m.search()
		case isKey(msg, "t"):
			m.topK = nextTopK(m.topK)
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			return m.search()
		case m.keys.down(msg):
			m.list.Down()
		case m.keys.up(msg):
			m.list.Up()
		}
	}
	return m, nil
}

func nextTopK(current int) int {
	for i, k := range searchTopKs {
		if k == current {
			return searchTopKs[(i+1)%len(searchTopKs)]
		}
	}
	return searchTopKs[0]
}

func (m SearchModel) search() (SearchModel, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}
	key := searchKey{kbID: m.desk.Selection().KnowledgeBaseID, query: query, topK: m.topK}
	m.pending = key
	if key.kbID == "" {
		m.loading = false
		m.result = nil
		m.list.SetItems(nil)
		m.err = session.PreconditionNoKnowledgeBase
		return m, nil
	}
	m.loading = true
	m.err = ""
	client := m.client
	return m, func() tea.Msg {
		res, err := client.SearchKnowledgeBase(key.kbID, api.SearchInput{Query: key.query, TopK: key.topK})
		return searchResultsMsg{key: key, result: res, err: err}
	}
}

func (m SearchModel) canExitUp() bool {
	return !m.input.Focused() && m.list.Selected() == 0
}

func (m SearchModel) hints() []string {
	if m.input.Focused() {
		return []string{
			components.Hint("enter", "Search"),
			components.Hint("esc", "Done"),
		}
	}
	return []string{
		components.Hint("/", "Edit"),
		components.Hint("enter", "Search"),
		components.Hint("t", fmt.Sprintf("Top %d", m.topK)),
		components.Hint("↑/↓", "Move"),
	}
}

func (m SearchModel) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("top %d", m.topK)))
	b.WriteString("\n\n")

	width := components.BoxContentWidth(m.width)
	switch {
	case m.loading:
		b.WriteString(MutedStyle.Render("Searching..."))
	case m.err != "":
		b.WriteString(ErrorStyle.Render(components.WrapText(m.err, width)))
	case m.result == nil:
		b.WriteString(MutedStyle.Render("Type a query and press enter."))
	case len(m.result.Hits) == 0:
		b.WriteString(MutedStyle.Render("No matches."))
	default:
		b.WriteString(MutedStyle.Render(fmt.Sprintf("%d hits · kb v%d · %dms",
			len(m.result.Hits), m.result.KBVersion, m.result.LatencyMS)))
		b.WriteString("\n")
		hits := m.result.Hits
		for i := range m.list.Visible() {
			abs := m.list.RelToAbs(i)
			hit := hits[abs]
			line := fmt.Sprintf("[%.3f] %s", hit.Score, components.ClampTextWidth(hit.Content, width-12))
			if m.list.IsSelected(abs) {
				b.WriteString("\n" + SelectedStyle.Render("> "+line))
			} else {
				b.WriteString("\n" + NormalStyle.Render("  "+line))
			}
		}
		if idx := m.list.Selected(); idx < len(hits) {
			b.WriteString("\n\n" + components.WrapText(hits[idx].Content, width))
		}
	}
	return components.Indent(components.TitledBox("Search", b.String(), m.width), 1)
}
