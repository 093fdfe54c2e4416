// ABOUTME: Graph view for TUI
// ABOUTME: Shows the pipeline DOT source in a scrollable viewport
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-graphviz"
	"github.com/harperreed/agentcrm/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAFO DO PIPELINE"))
	s.WriteString("\n")
	s.WriteString(m.graph.View())
	s.WriteString("\n")
	s.WriteString(m.renderGraphHelp())
	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"↑/↓: Rolar",
		"Esc: Voltar",
		"q: Sair",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = ViewMain
		return m, nil
	}

	var cmd tea.Cmd
	m.graph, cmd = m.graph.Update(msg)
	return m, cmd
}

// openGraph renders the pipeline with its clients and switches to the graph view.
func (m *Model) openGraph() {
	generator := viz.NewGraphGenerator(m.logger)
	dot, err := generator.GeneratePipelineGraph(context.Background(), m.store.Opportunities(), m.store.Clients(), graphviz.XDOT)
	if err != nil {
		m.err = err
		return
	}

	m.err = nil
	m.graph.SetContent(string(dot))
	m.graph.GotoTop()
	m.viewMode = ViewGraph
}
