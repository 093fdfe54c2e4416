// ABOUTME: New-client form view for TUI
// ABOUTME: Collects client fields with text inputs and saves through the entity store
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/agentcrm/models"
)

// Form field order.
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldCity
	fieldState
	fieldValue
	fieldCount
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("NOVO CLIENTE"))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Erro: " + m.err.Error()))
	}

	s.WriteString("\n")
	s.WriteString(m.renderEditHelp())
	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Próximo campo",
		"Enter: Salvar",
		"Esc: Cancelar",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.viewMode = ViewMain
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "enter":
		client, err := m.saveClient()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("✓ Cliente criado: %s", client.FullName)
		m.viewMode = ViewMain
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initClientForm() {
	placeholders := [fieldCount]string{
		fieldName:  "Nome completo",
		fieldEmail: "Email",
		fieldPhone: "Telefone",
		fieldCity:  "Cidade",
		fieldState: "Estado (UF)",
		fieldValue: "Valor potencial",
	}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 100
	}
	inputs[fieldState].CharLimit = 2
	inputs[fieldValue].CharLimit = 20

	m.formInputs = inputs
	m.focusIndex = 0
	m.err = nil
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.focusIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) saveClient() (models.Client, error) {
	value := 0.0
	if raw := strings.TrimSpace(m.formInputs[fieldValue].Value()); raw != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return models.Client{}, fmt.Errorf("valor inválido: %s", raw)
		}
		value = v
	}

	return m.store.AddClient(models.Client{
		FullName:       strings.TrimSpace(m.formInputs[fieldName].Value()),
		Email:          strings.TrimSpace(m.formInputs[fieldEmail].Value()),
		Phone:          strings.TrimSpace(m.formInputs[fieldPhone].Value()),
		City:           strings.TrimSpace(m.formInputs[fieldCity].Value()),
		State:          strings.ToUpper(strings.TrimSpace(m.formInputs[fieldState].Value())),
		PotentialValue: value,
		CreatedBy:      "tui",
	})
}
