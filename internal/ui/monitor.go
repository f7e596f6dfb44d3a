package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

const topLeadsLimit = 20

// monitorWindows are the overview windows the operator can cycle through;
// zero means all time.
var monitorWindows = []time.Duration{0, 24 * time.Hour, 7 * 24 * time.Hour}

type overviewLoadedMsg struct {
	window time.Duration
	res    *api.Overview
	err    error
}

type topLeadsLoadedMsg struct {
	noteID string
	res    *api.NoteTopLeads
	err    error
}

// MonitorModel shows reply metrics and the best leads for the selected note.
type MonitorModel struct {
	client *api.Client
	desk   *session.Desk
	window int
	now    func() time.Time

	overview        *api.Overview
	overviewErr     string
	overviewLoading bool

	leadsNote    string
	leads        *api.NoteTopLeads
	leadsErr     string
	leadsLoading bool

	width  int
	height int
}

// NewMonitorModel builds the monitoring tab.
func NewMonitorModel(client *api.Client, desk *session.Desk) MonitorModel {
	return MonitorModel{client: client, desk: desk, now: time.Now}
}

// Init reloads both panels; the tab refetches every time it is opened.
func (m *MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.loadOverview(), m.loadLeads())
}

func (m MonitorModel) Update(msg tea.Msg) (MonitorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewLoadedMsg:
		if msg.window != monitorWindows[m.window] {
			return m, nil
		}
		m.overviewLoading = false
		m.overview = msg.res
		m.overviewErr = ""
		if msg.err != nil {
			m.overviewErr = msg.err.Error()
		}
		return m, nil
	case topLeadsLoadedMsg:
		if msg.noteID != m.leadsNote {
			return m, nil
		}
		m.leadsLoading = false
		m.leads = msg.res
		m.leadsErr = ""
		if msg.err != nil {
			m.leadsErr = msg.err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case isKey(msg, "r"):
			cmd := m.Init()
			return m, cmd
		case isKey(msg, "w"):
			m.window = (m.window + 1) % len(monitorWindows)
			cmd := m.loadOverview()
			return m, cmd
		}
	}
	return m, nil
}

func (m *MonitorModel) loadOverview() tea.Cmd {
	window := monitorWindows[m.window]
	input := api.OverviewInput{}
	if window > 0 {
		since := m.now().Add(-window).UTC()
		input.Since = &since
	}
	m.overviewLoading = true
	client := m.client
	return func() tea.Msg {
		res, err := client.MonitorOverview(input)
		return overviewLoadedMsg{window: window, res: res, err: err}
	}
}

func (m *MonitorModel) loadLeads() tea.Cmd {
	noteID := m.desk.Selection().NoteID
	m.leadsNote = noteID
	m.leads = nil
	m.leadsErr = ""
	if noteID == "" {
		m.leadsLoading = false
		return nil
	}
	m.leadsLoading = true
	client := m.client
	return func() tea.Msg {
		res, err := client.MonitorNoteTopLeads(noteID, topLeadsLimit)
		return topLeadsLoadedMsg{noteID: noteID, res: res, err: err}
	}
}

func (m MonitorModel) hints() []string {
	return []string{
		components.Hint("r", "Refresh"),
		components.Hint("w", "Window"),
	}
}

func windowLabel(d time.Duration) string {
	switch {
	case d == 0:
		return "all time"
	case d%(24*time.Hour) == 0:
		return "last " + strconv.Itoa(int(d/(24*time.Hour))) + "d"
	}
	return "last " + d.String()
}

func (m MonitorModel) View() string {
	return m.renderOverview() + "\n" + m.renderLeads()
}

func (m MonitorModel) renderOverview() string {
	title := "Overview · " + windowLabel(monitorWindows[m.window])
	switch {
	case m.overviewLoading:
		return components.TitledBox(title, MutedStyle.Render("Loading..."), m.width)
	case m.overviewErr != "":
		return components.ErrorBox(title, m.overviewErr, m.width)
	case m.overview == nil:
		return components.TitledBox(title, MutedStyle.Render("No data."), m.width)
	}
	o := m.overview
	rows := []components.TableRow{
		{Label: "Replies", Value: strconv.Itoa(o.TotalReplies)},
		{Label: "Avg latency", Value: fmt.Sprintf("%dms", o.AvgLatencyMS)},
		{Label: "LLM rate", Value: fmt.Sprintf("%.1f%%", o.LLMRate*100)},
		{Label: "Leads", Value: fmt.Sprintf("high %d · medium %d · low %d", o.LeadHigh, o.LeadMedium, o.LeadLow)},
	}
	for _, ic := range session.SortIntents(o.IntentCounts) {
		rows = append(rows, components.TableRow{Label: "  " + ic.Intent, Value: strconv.Itoa(ic.Count)})
	}
	return components.Table(title, rows, m.width)
}

var leadColumns = []components.TableColumn{
	{Header: "Comment", Width: 22},
	{Header: "Intent", Width: 14},
	{Header: "Score", Width: 6, Align: lipgloss.Right},
	{Header: "Level", Width: 8},
	{Header: "Latency", Width: 8, Align: lipgloss.Right},
	{Header: "Created", Width: 16},
}

func (m MonitorModel) renderLeads() string {
	title := "Top leads"
	if note, ok := m.desk.SelectedNote(); ok {
		title += " · " + components.ClampTextWidth(noteTitle(note), 40)
	}
	var body string
	switch {
	case m.leadsNote == "":
		body = MutedStyle.Render("Select a note on the Notes tab.")
	case m.leadsLoading:
		body = MutedStyle.Render("Loading...")
	case m.leadsErr != "":
		body = ErrorStyle.Render(m.leadsErr)
	case m.leads == nil || len(m.leads.Rows) == 0:
		body = MutedStyle.Render("No leads generated for this note yet.")
	default:
		rows := make([][]string, 0, len(m.leads.Rows))
		for _, r := range m.leads.Rows {
			created := ""
			if !r.CreatedAt.IsZero() {
				created = r.CreatedAt.Local().Format(tsLayout)
			}
			rows = append(rows, []string{
				r.CommentID, r.Intent, strconv.Itoa(r.LeadScore),
				r.LeadLevel, fmt.Sprintf("%dms", r.LatencyMS), created,
			})
		}
		body = components.TableGrid(leadColumns, rows, components.BoxContentWidth(m.width), -1)
	}
	return components.TitledBox(title, strings.TrimRight(body, "\n"), m.width)
}
