// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Client, Opportunity, Task, AiAgent and chat message structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// JSON names follow the browser app's localStorage shapes so exports import as-is.

type Client struct {
	ID             string    `json:"id"`
	FullName       string    `json:"nomeCompleto"`
	Email          string    `json:"email"`
	Phone          string    `json:"telefone"`
	Source         string    `json:"origem"`
	Status         string    `json:"status"`
	PotentialValue float64   `json:"valorPotencial"`
	Notes          string    `json:"observacoes"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	City           string    `json:"cidade,omitempty"`
	State          string    `json:"estado,omitempty"`
}

type Opportunity struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ClientName string  `json:"clientName"`
	ClientID   string  `json:"clientId,omitempty"`
	Value      float64 `json:"value"`
	// Stage is persisted as "status" to match the kanban column ids.
	Stage             string    `json:"status"`
	NextAction        string    `json:"nextAction"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"createdAt"`
	ExpectedCloseDate string    `json:"expectedCloseDate,omitempty"` // YYYY-MM-DD
}

// CloseDate parses ExpectedCloseDate. ok is false when unset or malformed.
func (o Opportunity) CloseDate() (t time.Time, ok bool) {
	if o.ExpectedCloseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, o.ExpectedCloseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Task struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"` // YYYY-MM-DD
	DueTime     string    `json:"dueTime"` // HH:MM
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsPending reports whether the task still counts as open work.
func (t Task) IsPending() bool {
	return t.Status != TaskStatusDone
}

type AiAgent struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Model         string     `json:"model"`
	Temperature   float64    `json:"temperature"`
	MaxTokens     int        `json:"maxTokens"`
	SystemPrompt  string     `json:"systemPrompt"`
	IsActive      bool       `json:"isActive"`
	TriggerEvents []string   `json:"triggerEvents"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastUsed      *time.Time `json:"lastUsed,omitempty"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatHistory struct {
	AgentID     string        `json:"agentId"`
	Messages    []ChatMessage `json:"messages"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

const DateLayout = "2006-01-02"

// Opportunity stage ids, in kanban order.
const (
	StageNewLead        = "novo-lead"
	StageInitialContact = "contato-inicial"
	StageQualification  = "qualificacao"
	StageProposal       = "proposta"
	StageNegotiation    = "negociacao"
	StageClosedWon      = "fechado-ganhou"
	StageClosedLost     = "fechado-perdeu"
)

// Client status strings.
const (
	ClientStatusNew          = "Novo"
	ClientStatusContacted    = "Em Contato"
	ClientStatusQualified    = "Qualificado"
	ClientStatusProposalSent = "Proposta Enviada"
	ClientStatusNegotiation  = "Negociação"
	ClientStatusClosedWon    = "Fechado (Ganhou)"
	ClientStatusClosedLost   = "Fechado (Perdeu)"
	ClientStatusInactive     = "Inativo"
)

// Chat sender tags.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Task priorities.
const (
	TaskPriorityHigh   = "Alta"
	TaskPriorityMedium = "Média"
	TaskPriorityLow    = "Baixa"
)

// Task statuses.
const (
	TaskStatusPending    = "Pendente"
	TaskStatusInProgress = "Em Andamento"
	TaskStatusDone       = "Concluída"
)

// Stages lists every stage id in board order.
var Stages = []string{
	StageNewLead,
	StageInitialContact,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

var stageNames = map[string]string{
	StageNewLead:        "Novo Lead",
	StageInitialContact: "Contato Inicial",
	StageQualification:  "Qualificação",
	StageProposal:       "Proposta",
	StageNegotiation:    "Negociação",
	StageClosedWon:      "Fechado (Ganhou)",
	StageClosedLost:     "Fechado (Perdeu)",
}

// ClientStatuses lists the statuses derived views recognise.
var ClientStatuses = []string{
	ClientStatusNew,
	ClientStatusContacted,
	ClientStatusQualified,
	ClientStatusProposalSent,
	ClientStatusNegotiation,
	ClientStatusClosedWon,
	ClientStatusClosedLost,
	ClientStatusInactive,
}

// IsValidStage reports whether stage is one of the seven kanban columns.
func IsValidStage(stage string) bool {
	_, ok := stageNames[stage]
	return ok
}

// StageName returns the column title for a stage id, or the id itself if unknown.
func StageName(stage string) string {
	if name, ok := stageNames[stage]; ok {
		return name
	}
	return stage
}

// IsKnownClientStatus reports whether status is recognised. Unknown values are
// still stored, they just don't show up in status-based views.
func IsKnownClientStatus(status string) bool {
	for _, s := range ClientStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidSender reports whether sender is a chat sender tag.
func IsValidSender(sender string) bool {
	return sender == SenderUser || sender == SenderAgent
}

// IsValidTaskStatus reports whether status is a known task status.
func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// IsValidTaskPriority reports whether priority is a known task priority.
func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

// NewID returns a fresh entity id. UUIDv7 is time-ordered, so ids sort by creation.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SameName compares full names the way the won cascade does: exact, non-empty match.
func SameName(a, b string) bool {
	return a != "" && a == b
}
