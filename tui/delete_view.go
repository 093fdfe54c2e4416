// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms and performs client deletion
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	client, err := m.store.Client(m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error loading client: %v", err)
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Sim, excluir (y)"),
		cancelButtonStyle.Render("Cancelar (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		warningStyle.Render("⚠  EXCLUIR CLIENTE  ⚠"),
		"",
		fmt.Sprintf("Excluir %s?", client.FullName),
		"As oportunidades dele continuam no pipeline.",
		"",
		buttons,
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, confirmBoxStyle.Render(content))
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		deleted, err := m.store.DeleteClient(m.selectedID)
		switch {
		case err != nil:
			m.err = err
		case !deleted:
			m.err = fmt.Errorf("client not found: %s", m.selectedID)
		default:
			m.err = nil
			m.status = "✓ Cliente excluído"
		}
		m.selectedID = ""
		m.selectedRow = 0
		m.viewMode = ViewMain
	case "n", "N", "esc":
		m.viewMode = ViewMain
	}
	return m, nil
}
