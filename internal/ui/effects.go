package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gravitrone/replydesk/internal/session"
)

// outcomeMsg carries a finished desk effect back to the update loop, where
// the App applies it.
type outcomeMsg struct {
	outcome session.Outcome
}

// toastMsg lets a tab raise an app-level toast.
type toastMsg struct {
	level string
	text  string
}

// effectCmds runs each desk effect as its own command. Bubble Tea runs them
// concurrently and their outcomes arrive in any order.
func effectCmds(effects []session.Effect) tea.Cmd {
	if len(effects) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		eff := eff // per-iteration copy; go.mod targets go1.21 loop semantics
		cmds = append(cmds, func() tea.Msg {
			return outcomeMsg{outcome: eff()}
		})
	}
	return tea.Batch(cmds...)
}

func toastCmd(level, text string) tea.Cmd {
	return func() tea.Msg {
		return toastMsg{level: level, text: text}
	}
}
