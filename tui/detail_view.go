// ABOUTME: Detail view for TUI
// ABOUTME: Shows an opportunity from the board or a client from the client list
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/viz"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	if m.tab == TabClients {
		s.WriteString(titleStyle.Render("CLIENTE"))
		s.WriteString("\n\n")
		s.WriteString(m.renderClientDetail())
	} else {
		s.WriteString(titleStyle.Render("OPORTUNIDADE"))
		s.WriteString("\n\n")
		s.WriteString(m.renderOpportunityDetail())
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func (m Model) renderOpportunityDetail() string {
	opp, err := m.store.Opportunity(m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder
	s.WriteString(m.renderField("Nome", opp.Name))
	s.WriteString(m.renderField("Etapa", models.StageName(opp.Stage)))
	s.WriteString(m.renderField("Valor", viz.FormatBRL(opp.Value)))
	s.WriteString(m.renderField("Cliente", opp.ClientName))
	if client, ok := m.engine.ClientFor(opp); ok {
		s.WriteString(m.renderField("Status do cliente", client.Status))
	}
	s.WriteString(m.renderField("Próxima ação", opp.NextAction))
	s.WriteString(m.renderField("Previsão", opp.ExpectedCloseDate))
	s.WriteString(m.renderField("Descrição", opp.Description))
	s.WriteString(m.renderField("Criada em", opp.CreatedAt.Local().Format("02/01/2006 15:04")))
	return s.String()
}

func (m Model) renderClientDetail() string {
	client, err := m.store.Client(m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder
	s.WriteString(m.renderField("Nome", client.FullName))
	s.WriteString(m.renderField("Status", client.Status))
	s.WriteString(m.renderField("Email", client.Email))
	s.WriteString(m.renderField("Telefone", client.Phone))
	s.WriteString(m.renderField("Origem", client.Source))
	s.WriteString(m.renderField("Cidade", client.City))
	s.WriteString(m.renderField("Estado", client.State))
	s.WriteString(m.renderField("Valor potencial", viz.FormatBRL(client.PotentialValue)))
	s.WriteString(m.renderField("Observações", client.Notes))

	opps := m.store.OpportunitiesForClient(client.ID)
	if len(opps) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Oportunidades"))
		s.WriteString("\n")
		for _, o := range opps {
			s.WriteString(fmt.Sprintf("  • %s (%s) %s\n", o.Name, models.StageName(o.Stage), viz.FormatBRL(o.Value)))
		}
	}
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{"Esc: Voltar", "q: Sair"}
	if m.tab == TabClients {
		help = []string{"d: Excluir", "Esc: Voltar", "q: Sair"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewMain
	case "d":
		if m.tab == TabClients {
			m.viewMode = ViewConfirmDelete
		}
	}
	return m, nil
}
