package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bannerArt = `
█▀█ █▀▀ █▀█ █   █▄█   █▀▄ █▀▀ █▀ █▄▀
█▀▄ ██▄ █▀▀ █▄▄  █    █▄▀ ██▄ ▄█ █ █`

const bannerSubtitle = "Comment Reply Desk • Operator Console"

// RenderBanner returns the styled banner with its subtitle centred beneath.
func RenderBanner() string {
	lines := strings.Split(strings.TrimPrefix(bannerArt, "\n"), "\n")
	blockWidth := lipgloss.Width(bannerSubtitle)
	for _, line := range lines {
		if w := lipgloss.Width(line); w > blockWidth {
			blockWidth = w
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(BannerStyle.Width(blockWidth).Align(lipgloss.Center).Render(line))
		b.WriteString("\n")
	}
	subtitle := MutedStyle.Width(blockWidth).Align(lipgloss.Center).Render(bannerSubtitle)
	underline := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(strings.Repeat("─", lipgloss.Width(bannerSubtitle)))
	return b.String() + "\n" + subtitle + "\n" + underline + "\n"
}
