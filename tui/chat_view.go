// ABOUTME: Agent list and chat views for TUI
// ABOUTME: Opens chat sessions and sends messages asynchronously so the UI stays responsive
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/models"
)

type sessionOpenedMsg struct {
	session *chat.Session
	err     error
}

type replyMsg struct {
	message models.ChatMessage
	err     error
}

type reconnectedMsg struct {
	session   *chat.Session
	connected bool
}

var (
	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	agentMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	selectedAgentStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("170"))

	inactiveAgentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

func (m Model) renderAgentList() string {
	agents := m.agents.List()
	if len(agents) == 0 {
		return "Nenhum agente cadastrado. Use 'agentcrm agent add' para criar um.\n" + m.renderAgentHelp()
	}

	var s strings.Builder
	for i, a := range agents {
		line := fmt.Sprintf("%s  %s · %d mensagens", a.Name, a.Model, m.chat.History().Stats(a.ID).Total)
		if !a.IsActive {
			line += " (inativo)"
		}
		switch {
		case i == m.agentRow:
			s.WriteString(selectedAgentStyle.Render("> " + line))
		case !a.IsActive:
			s.WriteString(inactiveAgentStyle.Render("  " + line))
		default:
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	s.WriteString(m.renderAgentHelp())
	return s.String()
}

func (m Model) renderAgentHelp() string {
	help := []string{
		"↑/↓: Navegar",
		"Enter: Conversar",
		"t: Ativar/desativar",
		"Tab: Seção",
		"q: Sair",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleAgentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	agents := m.agents.List()

	switch msg.String() {
	case "up", "k":
		if m.agentRow > 0 {
			m.agentRow--
		}
	case "down", "j":
		if m.agentRow < len(agents)-1 {
			m.agentRow++
		}
	case "t":
		if m.agentRow < len(agents) {
			if _, err := m.agents.ToggleActive(agents[m.agentRow].ID); err != nil {
				m.err = err
			}
		}
	case "enter":
		if m.agentRow < len(agents) {
			m.status = "Conectando..."
			return m, m.openSession(agents[m.agentRow].ID)
		}
	}
	return m, nil
}

func (m Model) openSession(agentID string) tea.Cmd {
	service := m.chat
	return func() tea.Msg {
		sess, err := service.Open(context.Background(), agentID)
		return sessionOpenedMsg{session: sess, err: err}
	}
}

func (m Model) handleSessionOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}

	m.err = nil
	m.session = msg.session
	m.waiting = false
	m.reconnecting = false
	m.chatInput.SetValue("")
	m.refreshChatLog()
	m.viewMode = ViewChat
	return m, m.chatInput.Focus()
}

func (m Model) renderChatView() string {
	if m.session == nil {
		return ""
	}
	agent := m.session.Agent()

	state := statusStyle.Render("● conectado")
	switch {
	case m.reconnecting:
		state = helpStyle.Render("● reconectando...")
	case !m.session.Connected():
		state = errorStyle.Render("● desconectado")
	}

	var footer string
	switch {
	case m.waiting:
		footer = helpStyle.Render(agent.Name + " está digitando...")
	case m.err != nil:
		footer = errorStyle.Render("Erro: " + m.err.Error())
	default:
		footer = helpStyle.Render(strings.Join([]string{
			"Enter: Enviar",
			"ctrl+r: Reconectar",
			"ctrl+l: Limpar histórico",
			"Esc: Voltar",
		}, " • "))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(agent.Name)+"  "+state,
		m.chatLog.View(),
		"",
		m.chatInput.View(),
		footer,
	)
}

func (m Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chatInput.Blur()
		m.session = nil
		m.reconnecting = false
		m.err = nil
		m.viewMode = ViewMain
		return m, nil
	case "ctrl+r":
		if m.reconnecting {
			return m, nil
		}
		m.reconnecting = true
		return m, reconnect(m.session)
	case "ctrl+l":
		if err := m.session.Clear(); err != nil {
			m.err = err
		}
		m.refreshChatLog()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatLog, cmd = m.chatLog.Update(msg)
		return m, cmd
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.waiting {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.waiting = true
		m.err = nil
		m.refreshChatLog()
		return m, sendMessage(m.session, text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func sendMessage(sess *chat.Session, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sess.Send(context.Background(), text)
		return replyMsg{message: reply, err: err}
	}
}

func reconnect(sess *chat.Session) tea.Cmd {
	return func() tea.Msg {
		return reconnectedMsg{session: sess, connected: sess.Reconnect(context.Background())}
	}
}

func (m Model) handleReconnected(msg reconnectedMsg) (tea.Model, tea.Cmd) {
	// a probe for a chat the user already left changes nothing on screen
	if msg.session != m.session {
		return m, nil
	}
	m.reconnecting = false
	return m, nil
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.waiting = false
	if msg.err != nil && !errors.Is(msg.err, chat.ErrBusy) {
		m.err = msg.err
	}
	m.refreshChatLog()
	return m, nil
}

func (m *Model) refreshChatLog() {
	if m.session == nil {
		return
	}
	agent := m.session.Agent()

	var s strings.Builder
	for _, msg := range m.session.History() {
		stamp := msg.Timestamp.Local().Format("15:04")
		if msg.Sender == models.SenderUser {
			s.WriteString(userMessageStyle.Render(fmt.Sprintf("[%s] Você: %s", stamp, msg.Content)))
		} else {
			s.WriteString(agentMessageStyle.Render(fmt.Sprintf("[%s] %s: %s", stamp, agent.Name, msg.Content)))
		}
		s.WriteString("\n")
	}
	m.chatLog.SetContent(s.String())
	m.chatLog.GotoBottom()
}
