// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen kanban board, client list, and agent chat over the CRM stores
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/pipeline"
	"go.uber.org/zap"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewMain ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewChat
	ViewConfirmDelete
)

// Tab is the top-level section shown in ViewMain.
type Tab int

const (
	TabBoard Tab = iota
	TabClients
	TabAgents
)

var tabNames = []string{"Pipeline", "Clientes", "Agentes"}

// Model is the main bubbletea model
type Model struct {
	store  *db.EntityStore
	engine *pipeline.Engine
	agents *db.AgentDirectory
	chat   *chat.Service
	logger *zap.Logger

	viewMode ViewMode
	tab      Tab

	// Board state
	column int
	row    int

	// Client list state
	selectedRow int
	searching   bool
	search      textinput.Model

	// Detail and delete state
	selectedID string

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graph viewport.Model

	// Agent list and chat state
	agentRow  int
	session   *chat.Session
	chatInput textinput.Model
	chatLog   viewport.Model
	waiting   bool

	reconnecting bool

	status string
	err    error

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(store *db.EntityStore, engine *pipeline.Engine, agents *db.AgentDirectory, service *chat.Service, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	search := textinput.New()
	search.Placeholder = "Buscar cliente"
	search.CharLimit = 100

	input := textinput.New()
	input.Placeholder = "Digite sua mensagem"
	input.CharLimit = 2000

	return Model{
		store:     store,
		engine:    engine,
		agents:    agents,
		chat:      service,
		logger:    logger,
		viewMode:  ViewMain,
		tab:       TabBoard,
		search:    search,
		chatInput: input,
		graph:     viewport.New(80, 18),
		chatLog:   viewport.New(80, 16),
		width:     80,
		height:    24,
	}
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.graph.Width = msg.Width
		m.graph.Height = max(msg.Height-6, 3)
		m.chatLog.Width = msg.Width
		m.chatLog.Height = max(msg.Height-8, 3)
		m.chatInput.Width = max(msg.Width-4, 10)
		return m, nil
	case sessionOpenedMsg:
		return m.handleSessionOpened(msg)
	case replyMsg:
		return m.handleReply(msg)
	case reconnectedMsg:
		return m.handleReconnected(msg)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewMain:
		return m.renderMainView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewChat:
		return m.renderChatView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

// typing reports whether keys should go to a text input instead of shortcuts.
func (m Model) typing() bool {
	return m.viewMode == ViewEdit || m.viewMode == ViewChat || (m.viewMode == ViewMain && m.searching)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if msg.String() == "q" && !m.typing() {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewMain:
		return m.handleMainKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewChat:
		return m.handleChatKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.searching {
		switch msg.String() {
		case "tab":
			m.tab = (m.tab + 1) % Tab(len(tabNames))
			m.status = ""
			return m, nil
		case "shift+tab":
			m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			m.status = ""
			return m, nil
		}
	}

	switch m.tab {
	case TabBoard:
		return m.handleBoardKeys(msg)
	case TabClients:
		return m.handleListKeys(msg)
	case TabAgents:
		return m.handleAgentKeys(msg)
	}
	return m, nil
}

func (m Model) renderMainView() string {
	var body string
	switch m.tab {
	case TabBoard:
		body = m.renderBoard()
	case TabClients:
		body = m.renderListView()
	case TabAgents:
		body = m.renderAgentList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("AGENTCRM"),
		m.renderTabs(),
		"",
		body,
		m.renderStatus(),
	)
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Erro: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
