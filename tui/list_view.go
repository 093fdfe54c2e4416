// ABOUTME: Client list view for TUI
// ABOUTME: Table of clients with fuzzy search, detail, new-client form, and delete
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/viz"
)

func (m Model) listedClients() []models.Client {
	return m.store.FindClients(m.search.Value(), 0)
}

func (m Model) renderListView() string {
	var s strings.Builder

	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderClientsTable())
	s.WriteString("\n")
	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderClientsTable() string {
	columns := []table.Column{
		{Title: "Nome", Width: 26},
		{Title: "Status", Width: 18},
		{Title: "Valor", Width: 14},
		{Title: "Local", Width: 20},
	}

	var rows []table.Row
	for _, c := range m.listedClients() {
		rows = append(rows, table.Row{
			c.FullName,
			c.Status,
			viz.FormatBRL(c.PotentialValue),
			location(c),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navegar",
		"Enter: Detalhes",
		"/: Buscar",
		"n: Novo",
		"d: Excluir",
		"Tab: Seção",
		"q: Sair",
	}
	if m.searching {
		help = []string{"Enter: Confirmar", "Esc: Limpar busca"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "esc":
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.selectedRow = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.selectedRow = 0
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.listedClients())-1 {
			m.selectedRow++
		}
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.selectedID = id
			m.viewMode = ViewDetail
		}
	case "d":
		if id := m.getSelectedID(); id != "" {
			m.selectedID = id
			m.viewMode = ViewConfirmDelete
		}
	case "n":
		m.initClientForm()
		m.viewMode = ViewEdit
	}

	return m, nil
}

func (m Model) getSelectedID() string {
	clients := m.listedClients()
	if m.selectedRow < len(clients) {
		return clients[m.selectedRow].ID
	}
	return ""
}

func location(c models.Client) string {
	switch {
	case c.City != "" && c.State != "":
		return c.City + "/" + c.State
	case c.State != "":
		return c.State
	}
	return c.City
}
