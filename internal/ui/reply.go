package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

type replySuggestedMsg struct {
	seq int
	res *api.ReplySuggestion
	err error
}

type leadScoredMsg struct {
	seq int
	res *api.LeadScore
	err error
}

const (
	replyFieldComment = iota
	replyFieldTitle
	replyFieldCount
)

// ReplyModel asks for a suggestion on free-form comment text, outside any
// scraped note.
type ReplyModel struct {
	client  *api.Client
	desk    *session.Desk
	fields  []textinput.Model
	focus   int
	editing bool
	seq     int
	loading bool
	result  *api.ReplySuggestion
	score   *api.LeadScore
	err     string
	width   int
	height  int
}

// NewReplyModel builds the free-form reply tab.
func NewReplyModel(client *api.Client, desk *session.Desk) ReplyModel {
	comment := textinput.New()
	comment.Placeholder = "comment text, e.g. 这个适合敏感肌吗"
	comment.CharLimit = 500
	comment.Width = 60

	title := textinput.New()
	title.Placeholder = "note title (optional)"
	title.CharLimit = 200
	title.Width = 60

	return ReplyModel{
		client: client,
		desk:   desk,
		fields: []textinput.Model{comment, title},
	}
}

func (m ReplyModel) Init() tea.Cmd {
	return nil
}

func (m ReplyModel) typing() bool {
	return m.editing
}

func (m ReplyModel) Update(msg tea.Msg) (ReplyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case replySuggestedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.result = msg.res
		return m, nil
	case leadScoredMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.score = msg.res
		return m, nil
	case tea.KeyMsg:
		if !m.editing {
			switch {
			case isKey(msg, "/", "e"):
				m.editing = true
				cmd := m.fields[m.focus].Focus()
				return m, cmd
			case isKey(msg, "enter"):
				return m.submit()
			case isKey(msg, "L"):
				return m.scoreLead()
			case isKey(msg, "c"):
				return m, m.copyReply()
			}
			return m, nil
		}
		switch {
		case isBack(msg):
			m.editing = false
			m.fields[m.focus].Blur()
			return m, nil
		case isKey(msg, "tab", "shift+tab"):
			m.fields[m.focus].Blur()
			m.focus = (m.focus + 1) % replyFieldCount
			cmd := m.fields[m.focus].Focus()
			return m, cmd
		case isEnter(msg):
			m.editing = false
			m.fields[m.focus].Blur()
			return m.submit()
		}
		var cmd tea.Cmd
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ReplyModel) submit() (ReplyModel, tea.Cmd) {
	text := strings.TrimSpace(m.fields[replyFieldComment].Value())
	if text == "" {
		m.err = "comment text is required"
		return m, nil
	}
	kbID := m.desk.Selection().KnowledgeBaseID
	m.seq++
	m.result, m.score, m.err = nil, nil, ""
	if kbID == "" {
		m.err = session.PreconditionNoKnowledgeBase
		return m, nil
	}
	m.loading = true
	input := api.SuggestReplyInput{
		KBID: kbID,
		Comment: api.ReplyComment{
			CommentID: "tui-" + uuid.NewString(),
			NoteTitle: strings.TrimSpace(m.fields[replyFieldTitle].Value()),
			Nickname:  "operator",
			Content:   text,
		},
		TopK:        session.SuggestionTopK,
		InjectSales: true,
	}
	seq, client := m.seq, m.client
	return m, func() tea.Msg {
		res, err := client.SuggestReply(input)
		return replySuggestedMsg{seq: seq, res: res, err: err}
	}
}

func (m ReplyModel) scoreLead() (ReplyModel, tea.Cmd) {
	text := strings.TrimSpace(m.fields[replyFieldComment].Value())
	if text == "" {
		m.err = "comment text is required"
		return m, nil
	}
	m.seq++
	m.result, m.score, m.err = nil, nil, ""
	m.loading = true
	seq, client := m.seq, m.client
	return m, func() tea.Msg {
		res, err := client.ScoreLead(text)
		return leadScoredMsg{seq: seq, res: res, err: err}
	}
}

func (m ReplyModel) copyReply() tea.Cmd {
	if m.result == nil {
		return toastCmd("warning", "No suggested reply to copy.")
	}
	if err := clipboardWrite(m.result.Reply); err != nil {
		return toastCmd("error", fmt.Sprintf("Clipboard copy failed: %v", err))
	}
	return toastCmd("success", "Reply copied to clipboard.")
}

func (m ReplyModel) canExitUp() bool {
	return !m.editing
}

func (m ReplyModel) hints() []string {
	if m.editing {
		return []string{
			components.Hint("tab", "Next field"),
			components.Hint("enter", "Suggest"),
			components.Hint("esc", "Done"),
		}
	}
	return []string{
		components.Hint("/", "Edit"),
		components.Hint("enter", "Suggest"),
		components.Hint("L", "Score lead"),
		components.Hint("c", "Copy"),
	}
}

func (m ReplyModel) View() string {
	var b strings.Builder
	labels := []string{"Comment", "Note title"}
	for i, f := range m.fields {
		b.WriteString(MetaKeyStyle.Render(labels[i]) + "\n")
		b.WriteString(f.View() + "\n\n")
	}

	width := components.BoxContentWidth(m.width)
	switch {
	case m.loading:
		b.WriteString(MutedStyle.Render("Working..."))
	case m.err != "":
		b.WriteString(ErrorStyle.Render(components.WrapText(m.err, width)))
	case m.result != nil:
		r := m.result
		b.WriteString(fmt.Sprintf("%s %s (%.0f%%)  %s %s %d\n\n",
			MutedStyle.Render("intent"), MetaKeyStyle.Render(r.Intent), r.IntentConfidence*100,
			MutedStyle.Render("lead"), leadLevelStyle(r.LeadLevel).Render(r.LeadLevel), r.LeadScore))
		b.WriteString(SuccessStyle.Render(components.WrapText(r.Reply, width)))
		for _, hit := range r.UsedKnowledge {
			b.WriteString("\n" + MutedStyle.Render(fmt.Sprintf("[%.3f] ", hit.Score)) +
				NormalStyle.Render(components.ClampTextWidth(hit.Content, width-8)))
		}
	case m.score != nil:
		s := m.score
		b.WriteString(fmt.Sprintf("%s %s %d\n", MutedStyle.Render("lead"), leadLevelStyle(s.Level).Render(s.Level), s.Score))
		if len(s.Signals) > 0 {
			b.WriteString(MutedStyle.Render("signals: ") + strings.Join(s.Signals, ", ") + "\n")
		}
		if len(s.NextActions) > 0 {
			b.WriteString(MutedStyle.Render("next: ") + strings.Join(s.NextActions, "; "))
		}
	default:
		b.WriteString(MutedStyle.Render("Press / to type a comment, then enter for a suggested reply."))
	}
	return components.Indent(components.TitledBox("Reply", b.String(), m.width), 1)
}
