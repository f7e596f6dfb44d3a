package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/config"
	"github.com/gravitrone/replydesk/internal/session"
	"github.com/gravitrone/replydesk/internal/ui/components"
)

// --- Tab Constants ---

const (
	tabNotes = iota
	tabReply
	tabSearch
	tabMonitor
	tabCount
)

var tabNames = []string{"Notes", "Reply", "Search", "Monitor"}

// --- Messages ---

type errMsg struct{ err error }
type clearToastMsg struct{}

type kbPublishedMsg struct{ res *api.PublishResult }
type kbReindexedMsg struct{ res *api.ReindexResult }

type kbAction int

const (
	kbActionNone kbAction = iota
	kbActionPublish
	kbActionReindex
)

type appToast struct {
	level string
	text  string
}

var toastTTL = 2500 * time.Millisecond

// --- App Model ---

// App is the root TUI model. It owns the session desk and routes between tabs.
type App struct {
	client *api.Client
	config *config.Config
	desk   *session.Desk
	keys   keyMap
	tab    int
	tabNav bool
	width  int
	height int
	err    string
	toast  *appToast

	helpOpen    bool
	quitConfirm bool
	picking     bool
	picker      *components.List
	confirming  kbAction

	notes   NotesModel
	reply   ReplyModel
	search  SearchModel
	monitor MonitorModel
}

// NewApp creates the root application model.
func NewApp(client *api.Client, cfg *config.Config, logger *zap.Logger) App {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	interval, _ := cfg.Interval()
	desk := session.NewDesk(client,
		session.WithLogger(logger),
		session.WithPageSize(cfg.PageSize),
		session.WithPreferredKnowledgeBase(cfg.DefaultKB),
		session.WithBulkInterval(interval),
	)
	keys := keyMap{vim: cfg.VimKeys}
	return App{
		client:  client,
		config:  cfg,
		desk:    desk,
		keys:    keys,
		tab:     tabNotes,
		tabNav:  true,
		picker:  components.NewList(10),
		notes:   NewNotesModel(desk, keys),
		reply:   NewReplyModel(client, desk),
		search:  NewSearchModel(client, desk, keys),
		monitor: NewMonitorModel(client, desk),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(effectCmds(a.desk.Start()), a.notes.Init())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.notes.width, a.notes.height = msg.Width, msg.Height
		a.reply.width, a.reply.height = msg.Width, msg.Height
		a.search.width, a.search.height = msg.Width, msg.Height
		a.monitor.width, a.monitor.height = msg.Width, msg.Height
		return a, nil

	case outcomeMsg:
		cmd := effectCmds(a.desk.Apply(msg.outcome))
		a.notes.refresh()
		if a.picking {
			a.picker.Replace(kbLabels(a.desk.KnowledgeBases()))
		}
		return a, cmd
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.notes, cmd = a.notes.Update(msg)
		return a, cmd

	// Async results go to the owning tab even when another tab is active.
	case replySuggestedMsg, leadScoredMsg:
		var cmd tea.Cmd
		a.reply, cmd = a.reply.Update(msg)
		return a, cmd
	case searchResultsMsg:
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	case overviewLoadedMsg, topLeadsLoadedMsg:
		var cmd tea.Cmd
		a.monitor, cmd = a.monitor.Update(msg)
		return a, cmd

	case errMsg:
		a.err = msg.err.Error()
		return a, nil
	case toastMsg:
		cmd := a.setToast(msg.level, msg.text)
		return a, cmd
	case clearToastMsg:
		a.toast = nil
		return a, nil
	case kbPublishedMsg:
		text := fmt.Sprintf("Published version %d.", msg.res.PublishedVersion)
		toast := a.setToast("success", text)
		return a, tea.Batch(toast, effectCmds(a.desk.LoadKnowledgeBases()))
	case kbReindexedMsg:
		r := msg.res
		text := fmt.Sprintf("Indexed %d chunks for v%d (%s %s).", r.IndexedChunks, r.KBVersion, r.Provider, r.Model)
		cmd := a.setToast("success", text)
		return a, cmd

	case tea.KeyMsg:
		if isKey(msg, "ctrl+c") {
			return a, tea.Quit
		}
		if a.quitConfirm {
			switch {
			case isKey(msg, "y"):
				return a, tea.Quit
			case isKey(msg, "n"), isBack(msg):
				a.quitConfirm = false
			}
			return a, nil
		}
		if a.helpOpen {
			if isBack(msg) || isKey(msg, "?") {
				a.helpOpen = false
			}
			return a, nil
		}
		if a.picking {
			return a.handlePickerKeys(msg)
		}
		if a.confirming != kbActionNone {
			return a.handleConfirmKeys(msg)
		}
		a.err = ""

		if !a.typing() {
			switch {
			case isKey(msg, "?"):
				a.helpOpen = true
				return a, nil
			case isKey(msg, "q"):
				if a.desk.BulkRunning() {
					a.quitConfirm = true
					return a, nil
				}
				return a, tea.Quit
			case isKey(msg, "K"):
				a.picking = true
				a.picker.SetItems(kbLabels(a.desk.KnowledgeBases()))
				return a, nil
			case isKey(msg, "P"):
				return a.beginKBAction(kbActionPublish)
			case isKey(msg, "R"):
				return a.beginKBAction(kbActionReindex)
			case isKey(msg, "r") && a.desk.Disconnected() != nil:
				return a, tea.Batch(effectCmds(a.desk.Start()), a.notes.spinner.Tick)
			}
			if idx, ok := tabIndexForKey(msg.String()); ok {
				return a.switchTab(idx)
			}

			// Arrow tab navigation until the user enters content with Down.
			if a.tabNav {
				switch {
				case isKey(msg, "left"):
					return a.switchTab((a.tab - 1 + tabCount) % tabCount)
				case isKey(msg, "right"):
					return a.switchTab((a.tab + 1) % tabCount)
				case isDown(msg):
					a.tabNav = false
					return a, nil
				}
				// Any other key exits tab nav so the active tab can handle it.
				a.tabNav = false
			} else if isUp(msg) && a.canExitToTabNav() {
				a.tabNav = true
				return a, nil
			}
		}
	}

	// Delegate to active tab
	var cmd tea.Cmd
	switch a.tab {
	case tabNotes:
		a.notes, cmd = a.notes.Update(msg)
		a.notes.refresh()
	case tabReply:
		a.reply, cmd = a.reply.Update(msg)
	case tabSearch:
		a.search, cmd = a.search.Update(msg)
	case tabMonitor:
		a.monitor, cmd = a.monitor.Update(msg)
	}
	return a, cmd
}

// typing reports whether the active tab has a focused text field, in which
// case single-letter global keys go to the field.
func (a App) typing() bool {
	switch a.tab {
	case tabNotes:
		return a.notes.typing()
	case tabReply:
		return a.reply.typing()
	case tabSearch:
		return a.search.typing()
	}
	return false
}

func (a App) canExitToTabNav() bool {
	switch a.tab {
	case tabNotes:
		return a.notes.canExitUp()
	case tabReply:
		return a.reply.canExitUp()
	case tabSearch:
		return a.search.canExitUp()
	}
	return true
}

func (a *App) switchTab(newTab int) (App, tea.Cmd) {
	oldTab := a.tab
	a.tab = newTab
	if oldTab != newTab && newTab == tabMonitor {
		return *a, a.monitor.Init()
	}
	return *a, nil
}

// --- Knowledge base picker & actions ---

func kbLabels(kbs []api.KnowledgeBase) []string {
	labels := make([]string, len(kbs))
	for i, kb := range kbs {
		labels[i] = fmt.Sprintf("%s (%s)  v%d", kb.Name, kb.Slug, kb.PublishedVersion)
	}
	return labels
}

func (a App) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isBack(msg):
		a.picking = false
	case a.keys.down(msg):
		a.picker.Down()
	case a.keys.up(msg):
		a.picker.Up()
	case isEnter(msg):
		kbs := a.desk.KnowledgeBases()
		idx := a.picker.Selected()
		a.picking = false
		if idx < len(kbs) {
			a.desk.SelectKnowledgeBase(kbs[idx].ID)
			cmd := a.setToast("info", "Using knowledge base "+kbs[idx].Name+".")
			return a, cmd
		}
	}
	return a, nil
}

func (a App) beginKBAction(action kbAction) (tea.Model, tea.Cmd) {
	if _, ok := a.desk.SelectedKnowledgeBase(); !ok {
		cmd := a.setToast("warning", "No knowledge base selected.")
		return a, cmd
	}
	a.confirming = action
	return a, nil
}

func (a App) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isKey(msg, "y"):
		action := a.confirming
		a.confirming = kbActionNone
		kb, ok := a.desk.SelectedKnowledgeBase()
		if !ok {
			return a, nil
		}
		client := a.client
		if action == kbActionPublish {
			return a, func() tea.Msg {
				res, err := client.PublishKnowledgeBase(kb.ID)
				if err != nil {
					return errMsg{fmt.Errorf("publish %s: %w", kb.Slug, err)}
				}
				return kbPublishedMsg{res: res}
			}
		}
		return a, func() tea.Msg {
			res, err := client.ReindexKnowledgeBase(kb.ID)
			if err != nil {
				return errMsg{fmt.Errorf("reindex %s: %w", kb.Slug, err)}
			}
			return kbReindexedMsg{res: res}
		}
	case isKey(msg, "n"), isBack(msg):
		a.confirming = kbActionNone
	}
	return a, nil
}

// --- View ---

func (a App) View() string {
	banner := centerBlockUniform(RenderBanner(), a.width)
	tabs := centerBlockUniform(a.renderTabs(), a.width)

	header := ""
	if err := a.desk.Disconnected(); err != nil {
		msg := fmt.Sprintf("%s: %v (r to retry)", a.baseURL(), err)
		header = centerBlockUniform(components.WarningBox("Backend not connected", msg, a.width), a.width) + "\n"
	}
	header += centerBlockUniform(a.renderKBLine(), a.width)

	var content string
	switch a.tab {
	case tabNotes:
		content = a.notes.View()
	case tabReply:
		content = a.reply.View()
	case tabSearch:
		content = a.search.View()
	case tabMonitor:
		content = a.monitor.View()
	}

	switch {
	case a.quitConfirm:
		content = components.ConfirmDialog("Quit", "A bulk run is still in progress. Quit anyway?")
	case a.helpOpen:
		content = a.renderHelp()
	case a.picking:
		content = a.renderPicker()
	case a.confirming != kbActionNone:
		content = a.renderConfirm()
	}
	content = centerBlockUniform(content, a.width)

	hints := components.StatusBar(a.statusHints(), a.width)

	feedback := ""
	if a.err != "" {
		feedback = "\n\n" + centerBlockUniform(components.ErrorBox("Error", a.err, a.width), a.width)
	} else if a.toast != nil {
		feedback = "\n\n" + centerBlockUniform(a.renderToast(), a.width)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n\n%s%s", banner, tabs, header, content, hints, feedback)
}

func (a App) baseURL() string {
	if a.client != nil {
		return a.client.BaseURL()
	}
	return a.config.BaseURL
}

func (a App) renderTabs() string {
	segments := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == a.tab {
			segments = append(segments, TabActiveStyle.Render(label))
		} else {
			segments = append(segments, TabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func (a App) renderKBLine() string {
	label := MutedStyle.Render("knowledge base: ")
	switch {
	case a.desk.KnowledgeBasesLoading():
		return label + MutedStyle.Render("loading...")
	case a.desk.KnowledgeBasesErr() != nil:
		return label + ErrorStyle.Render("unavailable")
	}
	kb, ok := a.desk.SelectedKnowledgeBase()
	if !ok {
		return label + WarningStyle.Render("none selected (K to pick)")
	}
	return label + SelectedStyle.Render(components.SanitizeOneLine(kb.Name)) +
		MutedStyle.Render(fmt.Sprintf(" (%s) · published v%d", kb.Slug, kb.PublishedVersion))
}

func (a App) renderPicker() string {
	kbs := a.desk.KnowledgeBases()
	if len(kbs) == 0 {
		return components.TitledBox("Knowledge bases", MutedStyle.Render("No knowledge bases."), a.width)
	}
	current := a.desk.Selection().KnowledgeBaseID
	var b strings.Builder
	for i, label := range a.picker.Visible() {
		abs := a.picker.RelToAbs(i)
		if abs < len(kbs) && kbs[abs].ID == current {
			label += AccentStyle.Render("  ●")
		}
		if a.picker.IsSelected(abs) {
			b.WriteString(SelectedStyle.Render("> " + label))
		} else {
			b.WriteString(NormalStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return components.TitledBox("Knowledge bases", strings.TrimRight(b.String(), "\n"), a.width)
}

func (a App) renderConfirm() string {
	kb, _ := a.desk.SelectedKnowledgeBase()
	if a.confirming == kbActionPublish {
		return components.ConfirmDialog("Publish", fmt.Sprintf("Publish %s as a new version?", kb.Name))
	}
	return components.ConfirmDialog("Reindex", fmt.Sprintf("Rebuild the vector index of %s v%d?", kb.Name, kb.PublishedVersion))
}

func (a App) renderHelp() string {
	rows := []components.TableRow{
		{Label: "1-4 / ←→", Value: "switch tab (↓ enters the tab, ↑ at the top leaves it)"},
		{Label: "K", Value: "pick knowledge base"},
		{Label: "P / R", Value: "publish / reindex the selected knowledge base"},
		{Label: "tab", Value: "notes: switch between note list and comments"},
		{Label: "enter", Value: "notes: open note / suggest reply for comment"},
		{Label: "b", Value: "notes: suggest replies for the whole page, one at a time"},
		{Label: "n / p", Value: "notes: next / previous comment page"},
		{Label: "s / l", Value: "notes: toggle sort / cycle page size"},
		{Label: "/", Value: "filter or edit the focused input"},
		{Label: "c", Value: "copy suggested reply"},
		{Label: "q", Value: "quit"},
	}
	return components.Table("Keys", rows, a.width)
}

func (a App) statusHints() []string {
	switch {
	case a.quitConfirm, a.confirming != kbActionNone:
		return []string{components.Hint("y", "Confirm"), components.Hint("n", "Cancel")}
	case a.helpOpen:
		return []string{components.Hint("esc", "Back")}
	case a.picking:
		return []string{components.Hint("enter", "Use"), components.Hint("esc", "Cancel")}
	}

	var hints []string
	switch a.tab {
	case tabNotes:
		hints = a.notes.hints()
	case tabReply:
		hints = a.reply.hints()
	case tabSearch:
		hints = a.search.hints()
	case tabMonitor:
		hints = a.monitor.hints()
	}
	if a.tabNav {
		hints = append([]string{components.Hint("←/→", "Tabs"), components.Hint("↓", "Enter")}, hints...)
	}
	if !a.typing() {
		hints = append(hints, components.Hint("K", "KB"), components.Hint("?", "Help"), components.Hint("q", "Quit"))
	}
	return hints
}

// --- Toasts ---

func (a *App) setToast(level, text string) tea.Cmd {
	a.toast = &appToast{
		level: level,
		text:  components.SanitizeOneLine(text),
	}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return clearToastMsg{}
	})
}

func (a App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	title := "Info"
	switch a.toast.level {
	case "success":
		title = "Success"
	case "warning":
		title = "Warning"
	case "error":
		return components.ErrorBox("Error", a.toast.text, a.width)
	}
	return components.TitledBox(title, a.toast.text, a.width)
}

func centerBlockUniform(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	maxWidth := 0
	for _, line := range lines {
		maxWidth = max(maxWidth, lipgloss.Width(line))
	}
	if maxWidth <= 0 || maxWidth >= width {
		return s
	}
	prefix := strings.Repeat(" ", (width-maxWidth)/2)
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
