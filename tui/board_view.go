// ABOUTME: Kanban board view for TUI
// ABOUTME: Shows the seven pipeline columns and moves opportunities between stages with h/l
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/pipeline"
	"github.com/harperreed/agentcrm/viz"
)

const minColumnWidth = 18

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62"))
)

func (m Model) renderBoard() string {
	board := m.engine.Board()
	width := max((m.width-2)/len(board)-4, minColumnWidth)

	columns := make([]string, len(board))
	for i, col := range board {
		var s strings.Builder
		s.WriteString(columnHeaderStyle.Render(clip(col.Name, width)))
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("%d · %s\n", len(col.Opportunities), viz.FormatBRL(col.Total)))
		s.WriteString(strings.Repeat("─", width))

		for j, o := range col.Opportunities {
			card := clip(o.Name, width) + "\n" + clip(viz.FormatBRL(o.Value), width)
			style := cardStyle
			if i == m.column && j == m.row {
				style = selectedCardStyle
			}
			s.WriteString("\n")
			s.WriteString(style.Width(width).Render(card))
		}

		style := columnStyle
		if i == m.column {
			style = activeColumnStyle
		}
		columns[i] = style.Width(width).Render(s.String())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		m.renderBoardHelp(),
	)
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→: Coluna",
		"↑/↓: Oportunidade",
		"h/l: Mover etapa",
		"Enter: Detalhes",
		"g: Grafo",
		"Tab: Seção",
		"q: Sair",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	board := m.engine.Board()

	switch msg.String() {
	case "left":
		if m.column > 0 {
			m.column--
		}
		m.row = 0
	case "right":
		if m.column < len(board)-1 {
			m.column++
		}
		m.row = 0
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < len(board[m.column].Opportunities)-1 {
			m.row++
		}
	case "h":
		return m.moveSelected(board, -1), nil
	case "l":
		return m.moveSelected(board, 1), nil
	case "enter":
		if opp, ok := m.selectedOpportunity(board); ok {
			m.selectedID = opp.ID
			m.viewMode = ViewDetail
		}
	case "g":
		m.openGraph()
	}

	return m, nil
}

func (m Model) selectedOpportunity(board []pipeline.Column) (models.Opportunity, bool) {
	if m.column >= len(board) {
		return models.Opportunity{}, false
	}
	opps := board[m.column].Opportunities
	if m.row < 0 || m.row >= len(opps) {
		return models.Opportunity{}, false
	}
	return opps[m.row], true
}

// moveSelected moves the selected opportunity one stage in direction delta and keeps
// it selected in its new column.
func (m Model) moveSelected(board []pipeline.Column, delta int) Model {
	opp, ok := m.selectedOpportunity(board)
	if !ok {
		return m
	}

	target := pipeline.Neighbor(opp.Stage, delta)
	if target == "" {
		m.status = "Não há etapa nessa direção"
		return m
	}

	moved, err := m.engine.MoveToStage(opp.ID, target)
	if err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.status = fmt.Sprintf("%s → %s", moved.Name, models.StageName(moved.Stage))
	if moved.Stage == models.StageClosedWon {
		if client, ok := m.engine.ClientFor(moved); ok && client.Status == models.ClientStatusClosedWon {
			m.status += fmt.Sprintf(" · cliente %s marcado como ganho", client.FullName)
		}
	}

	m.column = m.column + delta
	m.row = 0
	for i, o := range m.engine.Board()[m.column].Opportunities {
		if o.ID == moved.ID {
			m.row = i
			break
		}
	}
	return m
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
