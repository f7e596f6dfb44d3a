package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

const tsLayout = "2006-01-02 15:04"

var clipboardWrite = clipboard.WriteAll

type notesFocus int

const (
	focusNoteList notesFocus = iota
	focusComments
)

type notesPrompt int

const (
	promptNone notesPrompt = iota
	promptNoteQuery
	promptCommentFilter
)

// NotesModel browses notes and their comments and drives reply suggestions.
type NotesModel struct {
	desk    *session.Desk
	keys    keyMap
	focus   notesFocus
	prompt  notesPrompt
	input   textinput.Model
	notes   *components.List
	rows    *components.List
	spinner spinner.Model
	width   int
	height  int
}

// NewNotesModel builds the notes tab over desk.
func NewNotesModel(desk *session.Desk, keys keyMap) NotesModel {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 120
	input.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = AccentStyle

	return NotesModel{
		desk:    desk,
		keys:    keys,
		input:   input,
		notes:   components.NewList(8),
		rows:    components.NewList(10),
		spinner: spin,
	}
}

func (m NotesModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// busy reports whether any fetch or suggestion is in flight.
func (m NotesModel) busy() bool {
	d := m.desk
	return d.KnowledgeBasesLoading() || d.NotesLoading() || d.AnalysisLoading() ||
		d.CommentsLoading() || d.BulkRunning() || d.SuggestionCount(session.JobPending) > 0
}

func (m NotesModel) typing() bool {
	return m.prompt != promptNone
}

// refresh rebuilds list rows after the desk changed.
func (m *NotesModel) refresh() {
	notes := m.desk.Notes()
	labels := make([]string, len(notes))
	for i, n := range notes {
		labels[i] = n.NoteID
	}
	m.notes.Replace(labels)

	comments := m.desk.Comments()
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.CommentID
	}
	m.rows.Replace(ids)
}

// run starts effects and keeps the spinner turning while they are in flight.
func (m NotesModel) run(effects []session.Effect) tea.Cmd {
	if len(effects) == 0 {
		return nil
	}
	return tea.Batch(effectCmds(effects), m.spinner.Tick)
}

func (m NotesModel) Update(msg tea.Msg) (NotesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKeys(msg)
		}
		switch {
		case isKey(msg, "tab"):
			if m.focus == focusNoteList {
				m.focus = focusComments
			} else {
				m.focus = focusNoteList
			}
			return m, nil
		case isKey(msg, "/"):
			return m.openPrompt()
		case isKey(msg, "r"):
			return m, m.run(m.desk.Retry())
		}
		if m.focus == focusNoteList {
			return m.handleNoteKeys(msg)
		}
		return m.handleCommentKeys(msg)
	}
	return m, nil
}

func (m NotesModel) openPrompt() (NotesModel, tea.Cmd) {
	if m.focus == focusNoteList {
		m.prompt = promptNoteQuery
		m.input.Placeholder = "title, author or keyword"
		m.input.SetValue(m.desk.NotesQuery())
	} else {
		m.prompt = promptCommentFilter
		m.input.Placeholder = "comment text"
		m.input.SetValue(m.desk.Pager().Filter)
	}
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m NotesModel) handlePromptKeys(msg tea.KeyMsg) (NotesModel, tea.Cmd) {
	switch {
	case isBack(msg):
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case isEnter(msg):
		value := strings.TrimSpace(m.input.Value())
		prompt := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		if prompt == promptNoteQuery {
			return m, m.run(m.desk.LoadNotes(value))
		}
		return m, m.run(m.desk.SetFilter(value))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m NotesModel) handleNoteKeys(msg tea.KeyMsg) (NotesModel, tea.Cmd) {
	switch {
	case m.keys.down(msg):
		m.notes.Down()
	case m.keys.up(msg):
		m.notes.Up()
	case isEnter(msg):
		notes := m.desk.Notes()
		idx := m.notes.Selected()
		if idx >= len(notes) {
			return m, nil
		}
		m.focus = focusComments
		return m, m.run(m.desk.SelectNote(notes[idx].NoteID))
	}
	return m, nil
}

func (m NotesModel) handleCommentKeys(msg tea.KeyMsg) (NotesModel, tea.Cmd) {
	switch {
	case m.keys.down(msg):
		m.rows.Down()
	case m.keys.up(msg):
		m.rows.Up()
	case isEnter(msg):
		c, ok := m.selectedComment()
		if !ok {
			return m, nil
		}
		return m, m.run(m.desk.RequestSuggestion(c))
	case isKey(msg, "b"):
		if m.desk.BulkRunning() {
			return m, toastCmd("warning", "Bulk run already in progress.")
		}
		effects, err := m.desk.StartBulk()
		if errors.Is(err, session.ErrEmptyPage) {
			return m, toastCmd("warning", "No comments on this page.")
		}
		return m, m.run(effects)
	case isKey(msg, "s"):
		return m, m.run(m.desk.ToggleSort())
	case isKey(msg, "l"):
		return m, m.run(m.desk.CycleLimit())
	case isKey(msg, "n"):
		return m, m.run(m.desk.NextPage())
	case isKey(msg, "p"):
		return m, m.run(m.desk.PrevPage())
	case isKey(msg, "c"):
		return m, m.copyReply()
	}
	return m, nil
}

func (m NotesModel) selectedComment() (api.Comment, bool) {
	comments := m.desk.Comments()
	idx := m.rows.Selected()
	if idx < 0 || idx >= len(comments) {
		return api.Comment{}, false
	}
	return comments[idx], true
}

func (m NotesModel) copyReply() tea.Cmd {
	c, ok := m.selectedComment()
	if !ok {
		return nil
	}
	job := m.desk.Suggestion(c.CommentID)
	if job.Status != session.JobSucceeded || job.Value == nil {
		return toastCmd("warning", "No suggested reply to copy.")
	}
	if err := clipboardWrite(job.Value.Reply); err != nil {
		return toastCmd("error", fmt.Sprintf("Clipboard copy failed: %v", err))
	}
	return toastCmd("success", "Reply copied to clipboard.")
}

// canExitUp reports whether Up at this point should return to tab navigation.
func (m NotesModel) canExitUp() bool {
	if m.prompt != promptNone {
		return false
	}
	if m.focus == focusNoteList {
		return m.notes.Selected() == 0
	}
	return m.rows.Selected() == 0
}

func (m NotesModel) hints() []string {
	if m.prompt != promptNone {
		return []string{
			components.Hint("enter", "Apply"),
			components.Hint("esc", "Cancel"),
		}
	}
	if m.focus == focusNoteList {
		return []string{
			components.Hint("↑/↓", "Move"),
			components.Hint("enter", "Open"),
			components.Hint("/", "Filter"),
			components.Hint("tab", "Comments"),
		}
	}
	return []string{
		components.Hint("enter", "Suggest"),
		components.Hint("b", "Bulk"),
		components.Hint("n/p", "Page"),
		components.Hint("s", "Sort"),
		components.Hint("l", "Limit"),
		components.Hint("/", "Filter"),
		components.Hint("c", "Copy"),
		components.Hint("r", "Retry"),
	}
}

// --- View ---

func (m NotesModel) View() string {
	if m.prompt != promptNone {
		title := "Filter notes"
		if m.prompt == promptCommentFilter {
			title = "Filter comments"
		}
		return components.InputDialog(title, m.input.View())
	}
	sections := []string{m.renderNoteList()}
	if note, ok := m.desk.SelectedNote(); ok {
		sections = append(sections, m.renderNote(note), m.renderAnalysis())
	}
	if m.desk.Selection().NoteID != "" {
		sections = append(sections, m.renderComments())
	}
	return strings.Join(sections, "\n")
}

func (m NotesModel) loadingLine(what string) string {
	return m.spinner.View() + " " + MutedStyle.Render("Loading "+what+"...")
}

func (m NotesModel) renderNoteList() string {
	title := "Notes"
	if m.focus == focusNoteList {
		title = "Notes •"
	}
	notes := m.desk.Notes()
	var b strings.Builder
	if q := m.desk.NotesQuery(); q != "" {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("filter: %q", q)) + "\n\n")
	}
	switch {
	case m.desk.NotesErr() != nil:
		b.WriteString(ErrorStyle.Render("Failed to load notes: " + m.desk.NotesErr().Error()))
	case len(notes) == 0 && m.desk.NotesLoading():
		b.WriteString(m.loadingLine("notes"))
	case len(notes) == 0:
		b.WriteString(MutedStyle.Render("No notes."))
	default:
		width := components.BoxContentWidth(m.width) - 4
		selected := m.desk.Selection().NoteID
		for i := range m.notes.Visible() {
			abs := m.notes.RelToAbs(i)
			if abs >= len(notes) {
				break
			}
			n := notes[abs]
			marker := "  "
			if n.NoteID == selected {
				marker = AccentStyle.Render("● ")
			}
			label := components.ClampTextWidth(fmt.Sprintf("%s  · %s · ♥ %s", noteTitle(n), n.Nickname, orDash(n.LikedCount)), width)
			if m.notes.IsSelected(abs) && m.focus == focusNoteList {
				b.WriteString(SelectedStyle.Render("> ") + marker + SelectedStyle.Render(label))
			} else {
				b.WriteString("  " + marker + NormalStyle.Render(label))
			}
			b.WriteString("\n")
		}
		b.WriteString(MutedStyle.Render(fmt.Sprintf("%d notes", len(notes))))
	}
	return components.TitledBox(title, b.String(), m.width)
}

func (m NotesModel) renderNote(note api.Note) string {
	rows := []components.TableRow{
		{Label: "Author", Value: orDash(note.Nickname)},
		{Label: "Engagement", Value: fmt.Sprintf("likes %s · saves %s · comments %s · shares %s",
			orDash(note.LikedCount), orDash(note.CollectedCount), orDash(note.CommentCount), orDash(note.ShareCount))},
		{Label: "Posted", Value: orDash(formatMillis(note.Time))},
	}
	if note.TagList != "" {
		rows = append(rows, components.TableRow{Label: "Tags", Value: note.TagList})
	}
	if note.NoteURL != "" {
		rows = append(rows, components.TableRow{Label: "Link", Value: note.NoteURL})
	}
	table := components.Table(noteTitle(note), rows, m.width)
	if strings.TrimSpace(note.Desc) == "" {
		return table
	}
	desc := components.WrapText(note.Desc, components.BoxContentWidth(m.width))
	return table + "\n" + components.TitledBox("Body", clampLines(desc, 6), m.width)
}

func (m NotesModel) renderAnalysis() string {
	var b strings.Builder
	a := m.desk.Analysis()
	switch {
	case m.desk.AnalysisLoading():
		b.WriteString(m.loadingLine("analysis"))
	case m.desk.AnalysisErr() != nil:
		b.WriteString(ErrorStyle.Render("Analysis failed: " + m.desk.AnalysisErr().Error()))
	case a == nil:
		b.WriteString(MutedStyle.Render("No analysis."))
	default:
		b.WriteString(MutedStyle.Render(fmt.Sprintf("%d comments analysed", a.TotalComments)))
		counts := m.desk.IntentCounts()
		maxCount := 0
		for _, ic := range counts {
			maxCount = max(maxCount, ic.Count)
		}
		for _, ic := range counts {
			bar := ""
			if maxCount > 0 {
				bar = strings.Repeat("█", max(1, ic.Count*20/maxCount))
			}
			b.WriteString(fmt.Sprintf("\n%s %5d  %s",
				MetaKeyStyle.Render(fmt.Sprintf("%-14s", components.ClampTextWidth(ic.Intent, 14))),
				ic.Count, BarStyle.Render(bar)))
		}
	}
	return components.TitledBox("Intents", b.String(), m.width)
}

var commentColumns = []components.TableColumn{
	{Header: "", Width: 2, Align: lipgloss.Center},
	{Header: "User", Width: 12},
	{Header: "Likes", Width: 6, Align: lipgloss.Right},
	{Header: "Posted", Width: 16},
	{Header: "Comment", Width: 20},
}

func (m NotesModel) renderComments() string {
	p := m.desk.Pager()
	var b strings.Builder
	b.WriteString(rangeLabel(p))
	b.WriteString("\n")
	if line := m.bulkLine(); line != "" {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	comments := m.desk.Comments()
	switch {
	case m.desk.CommentsLoading():
		b.WriteString(m.loadingLine("comments"))
	case m.desk.CommentsErr() != nil:
		b.WriteString(ErrorStyle.Render("Failed to load comments: " + m.desk.CommentsErr().Error()))
		b.WriteString(MutedStyle.Render("  (r to retry)"))
	case len(comments) == 0:
		b.WriteString(MutedStyle.Render("No comments on this page."))
	default:
		visible := m.rows.Visible()
		grid := make([][]string, 0, len(visible))
		active := -1
		for i := range visible {
			abs := m.rows.RelToAbs(i)
			if abs >= len(comments) {
				break
			}
			c := comments[abs]
			if m.rows.IsSelected(abs) && m.focus == focusComments {
				active = i
			}
			grid = append(grid, []string{
				statusGlyph(m.desk.Suggestion(c.CommentID).Status),
				c.Nickname,
				orDash(c.LikeCount),
				formatMillis(c.CreateTime),
				c.Content,
			})
		}
		b.WriteString(components.TableGrid(commentColumns, grid, components.BoxContentWidth(m.width), active))
		if c, ok := m.selectedComment(); ok {
			b.WriteString("\n\n")
			b.WriteString(m.renderSuggestion(c))
		}
	}

	title := "Comments"
	if m.focus == focusComments {
		title = "Comments •"
	}
	return components.TitledBox(title, b.String(), m.width)
}

func (m NotesModel) bulkLine() string {
	p := m.desk.BulkProgress()
	if p.Total == 0 {
		return ""
	}
	if m.desk.BulkRunning() {
		return m.spinner.View() + " " + AccentStyle.Render(fmt.Sprintf("bulk %d/%d", p.Done, p.Total))
	}
	return SuccessStyle.Render(fmt.Sprintf("bulk done %d/%d", p.Done, p.Total)) +
		MutedStyle.Render(fmt.Sprintf(" · %d ok · %d failed",
			m.desk.SuggestionCount(session.JobSucceeded), m.desk.SuggestionCount(session.JobFailed)))
}

func (m NotesModel) renderSuggestion(c api.Comment) string {
	width := components.BoxContentWidth(m.width)
	var b strings.Builder
	b.WriteString(MetaKeyStyle.Render(components.ClampTextWidth(c.Nickname, 24)) + MutedStyle.Render(" wrote:") + "\n")
	b.WriteString(NormalStyle.Render(components.WrapText(c.Content, width)) + "\n\n")

	job := m.desk.Suggestion(c.CommentID)
	switch job.Status {
	case session.JobAbsent:
		b.WriteString(MutedStyle.Render("No suggestion yet. Press enter to generate one."))
	case session.JobPending:
		b.WriteString(m.spinner.View() + " " + MutedStyle.Render("Generating reply..."))
	case session.JobFailed:
		b.WriteString(ErrorStyle.Render("Suggestion failed: ") + ErrorStyle.UnsetBold().Render(job.Reason))
	case session.JobSucceeded:
		s := job.Value
		b.WriteString(fmt.Sprintf("%s %s (%.0f%%)  %s %s %d  %s\n",
			MutedStyle.Render("intent"), MetaKeyStyle.Render(s.Intent), s.IntentConfidence*100,
			MutedStyle.Render("lead"), leadLevelStyle(s.LeadLevel).Render(s.LeadLevel), s.LeadScore,
			MutedStyle.Render(fmt.Sprintf("%dms · kb v%d", s.LatencyMS, s.KBVersion))))
		b.WriteString(SuccessStyle.Render(components.WrapText(s.Reply, width)))
		if len(s.NextActions) > 0 {
			b.WriteString("\n" + MutedStyle.Render("next: "+strings.Join(s.NextActions, "; ")))
		}
	}
	return b.String()
}

// --- Helpers ---

func rangeLabel(p session.Pager) string {
	first, last, total := p.Range()
	label := fmt.Sprintf("comments %d-%d / %d", first, last, total)
	meta := fmt.Sprintf(" · sort %s · limit %d", p.Sort, p.Limit)
	if p.Filter != "" {
		meta += fmt.Sprintf(" · filter %q", p.Filter)
	}
	return NormalStyle.Render(label) + MutedStyle.Render(meta)
}

func statusGlyph(status session.JobStatus) string {
	switch status {
	case session.JobPending:
		return "…"
	case session.JobSucceeded:
		return "✓"
	case session.JobFailed:
		return "✗"
	}
	return "·"
}

func noteTitle(n api.Note) string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	return n.NoteID
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// formatMillis renders an epoch-millisecond time in local time.
func formatMillis(ms *int64) string {
	if ms == nil || *ms == 0 {
		return ""
	}
	return time.UnixMilli(*ms).Local().Format(tsLayout)
}

func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n" + MutedStyle.Render("…")
}
