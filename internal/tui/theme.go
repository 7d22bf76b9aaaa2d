package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the lipgloss styles used by the chat view.
type Theme struct {
	Title   lipgloss.Style
	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	Tool    lipgloss.Style
	ToolErr lipgloss.Style
	Faint   lipgloss.Style
	Input   lipgloss.Style
	Spinner lipgloss.Style
}

func NewTheme() Theme {
	if os.Getenv("CLOKAI_NO_COLOR") == "1" {
		plain := lipgloss.NewStyle()
		return Theme{
			Title: plain.Bold(true), RoleYou: plain.Bold(true), RoleAI: plain,
			Tool: plain, ToolErr: plain, Faint: plain, Input: plain, Spinner: plain,
		}
	}
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		RoleYou: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		RoleAI:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")),
		Tool:    lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		ToolErr: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Faint:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4B5563")).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}
