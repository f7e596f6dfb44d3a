package ui

import tea "github.com/charmbracelet/bubbletea"

func isKey(msg tea.KeyMsg, keys ...string) bool {
	for _, k := range keys {
		if msg.String() == k {
			return true
		}
	}
	return false
}

func isBack(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyEsc {
		return true
	}
	return isKey(msg, "esc", "ctrl+[")
}

func isUp(msg tea.KeyMsg) bool {
	return isKey(msg, "up")
}

func isDown(msg tea.KeyMsg) bool {
	return isKey(msg, "down")
}

func isEnter(msg tea.KeyMsg) bool {
	return isKey(msg, "enter")
}

// keyMap resolves list navigation, adding j/k when vim keys are enabled.
type keyMap struct {
	vim bool
}

func (k keyMap) up(msg tea.KeyMsg) bool {
	return isUp(msg) || (k.vim && isKey(msg, "k"))
}

func (k keyMap) down(msg tea.KeyMsg) bool {
	return isDown(msg) || (k.vim && isKey(msg, "j"))
}

func tabIndexForKey(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	idx := int(key[0] - '1')
	return idx, idx < tabCount
}
