package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestIsEnter(t *testing.T) {
	assert.True(t, isEnter(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.False(t, isEnter(tea.KeyMsg{Type: tea.KeySpace}))
}

func TestIsBack(t *testing.T) {
	assert.True(t, isBack(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.False(t, isBack(tea.KeyMsg{Type: tea.KeyEnter}))
}

func TestIsDown(t *testing.T) {
	assert.True(t, isDown(tea.KeyMsg{Type: tea.KeyDown}))
	assert.False(t, isDown(tea.KeyMsg{Type: tea.KeyUp}))
	assert.False(t, isDown(runeKey('j')))
}

func TestIsUp(t *testing.T) {
	assert.True(t, isUp(tea.KeyMsg{Type: tea.KeyUp}))
	assert.False(t, isUp(tea.KeyMsg{Type: tea.KeyDown}))
	assert.False(t, isUp(runeKey('k')))
}

func TestKeyMapVimAddsJK(t *testing.T) {
	plain := keyMap{}
	vim := keyMap{vim: true}

	assert.False(t, plain.down(runeKey('j')))
	assert.False(t, plain.up(runeKey('k')))
	assert.True(t, vim.down(runeKey('j')))
	assert.True(t, vim.up(runeKey('k')))
	assert.True(t, vim.down(tea.KeyMsg{Type: tea.KeyDown}))
	assert.True(t, vim.up(tea.KeyMsg{Type: tea.KeyUp}))
}

func TestTabIndexForKey(t *testing.T) {
	idx, ok := tabIndexForKey("1")
	assert.True(t, ok)
	assert.Equal(t, tabNotes, idx)

	idx, ok = tabIndexForKey("4")
	assert.True(t, ok)
	assert.Equal(t, tabMonitor, idx)

	_, ok = tabIndexForKey("5")
	assert.False(t, ok)
	_, ok = tabIndexForKey("a")
	assert.False(t, ok)
	_, ok = tabIndexForKey("10")
	assert.False(t, ok)
}

func TestIsKey(t *testing.T) {
	assert.True(t, isKey(runeKey('s'), "s"))
	assert.True(t, isKey(tea.KeyMsg{Type: tea.KeyLeft}, "left"))
	assert.True(t, isKey(runeKey('e'), "/", "e"))
	assert.False(t, isKey(runeKey('s'), "a"))
	assert.False(t, isKey(tea.KeyMsg{Type: tea.KeyLeft}, "right"))
}
