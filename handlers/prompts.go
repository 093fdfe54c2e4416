// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides client summary, pipeline analysis, and follow-up prompts
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/pipeline"
	"github.com/harperreed/agentcrm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store  *db.EntityStore
	engine *pipeline.Engine
}

func NewPromptHandlers(store *db.EntityStore, engine *pipeline.Engine) *PromptHandlers {
	return &PromptHandlers{store: store, engine: engine}
}

// Prompts lists the prompt templates GetPrompt can render.
func Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "client-summary",
			Description: "Summarise a client and their opportunities",
			Arguments: []*mcp.PromptArgument{
				{Name: "client_id", Description: "Client ID", Required: true},
			},
		},
		{
			Name:        "pipeline-analysis",
			Description: "Analyse the health of the opportunity pipeline",
		},
		{
			Name:        "follow-up-suggestions",
			Description: "Suggest follow-ups from pending tasks and open opportunities",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "client-summary":
		return h.getClientSummaryPrompt(arguments)
	case "pipeline-analysis":
		return h.getPipelineAnalysisPrompt()
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getClientSummaryPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	clientID, ok := args["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("client_id is required")
	}

	client, err := h.store.Client(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Faça um resumo completo deste cliente:\n\n")
	promptText.WriteString(fmt.Sprintf("Nome: %s\n", client.FullName))
	promptText.WriteString(fmt.Sprintf("Status: %s\n", client.Status))
	if client.Email != "" {
		promptText.WriteString(fmt.Sprintf("Email: %s\n", client.Email))
	}
	if client.Phone != "" {
		promptText.WriteString(fmt.Sprintf("Telefone: %s\n", client.Phone))
	}
	if client.Source != "" {
		promptText.WriteString(fmt.Sprintf("Origem: %s\n", client.Source))
	}
	if client.City != "" || client.State != "" {
		promptText.WriteString(fmt.Sprintf("Local: %s/%s\n", client.City, client.State))
	}
	promptText.WriteString(fmt.Sprintf("Valor potencial: %s\n", viz.FormatBRL(client.PotentialValue)))

	opps := h.store.OpportunitiesForClient(clientID)
	if len(opps) > 0 {
		promptText.WriteString(fmt.Sprintf("\nOportunidades (%d):\n", len(opps)))
		for _, o := range opps {
			promptText.WriteString(fmt.Sprintf("  - %s: %s, %s\n", o.Name, models.StageName(o.Stage), viz.FormatBRL(o.Value)))
		}
	}
	if client.Notes != "" {
		promptText.WriteString(fmt.Sprintf("\nObservações: %s\n", client.Notes))
	}

	promptText.WriteString("\nPor favor, forneça:")
	promptText.WriteString("\n1. Um breve resumo do relacionamento com o cliente")
	promptText.WriteString("\n2. Próximos passos recomendados")
	promptText.WriteString("\n3. Riscos ou oportunidades que merecem atenção")

	return userPrompt(fmt.Sprintf("Summary for client: %s", client.FullName), promptText.String()), nil
}

func (h *PromptHandlers) getPipelineAnalysisPrompt() (*mcp.GetPromptResult, error) {
	board := h.engine.Board()

	count := 0
	total := 0.0
	for _, col := range board {
		count += len(col.Opportunities)
		total += col.Total
	}

	var promptText strings.Builder
	promptText.WriteString("Analise o pipeline de vendas atual:\n\n")
	promptText.WriteString(fmt.Sprintf("Total de oportunidades: %d\n", count))
	promptText.WriteString(fmt.Sprintf("Valor total: %s\n\n", viz.FormatBRL(total)))
	promptText.WriteString("Pipeline por etapa:\n")
	for _, col := range board {
		promptText.WriteString(fmt.Sprintf("  - %s: %d oportunidades, %s\n", col.Name, len(col.Opportunities), viz.FormatBRL(col.Total)))
	}

	promptText.WriteString("\nPor favor, forneça:")
	promptText.WriteString("\n1. Análise da saúde e distribuição do pipeline")
	promptText.WriteString("\n2. Oportunidades que precisam de atenção")
	promptText.WriteString("\n3. Sugestões para melhorar a taxa de conversão")

	return userPrompt("Opportunity pipeline analysis", promptText.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt() (*mcp.GetPromptResult, error) {
	var promptText strings.Builder
	promptText.WriteString("Sugira follow-ups com base no estado atual do CRM:\n\n")

	pending := 0
	for _, t := range h.store.Tasks() {
		if !t.IsPending() {
			continue
		}
		if pending == 0 {
			promptText.WriteString("Tarefas pendentes:\n")
		}
		pending++
		line := fmt.Sprintf("  - %s (%s, %s)", t.Name, t.Priority, t.Status)
		if t.DueDate != "" {
			line += " vence " + t.DueDate
		}
		promptText.WriteString(line + "\n")
	}
	if pending == 0 {
		promptText.WriteString("Nenhuma tarefa pendente.\n")
	}

	promptText.WriteString("\nOportunidades em aberto:\n")
	open := 0
	for _, o := range h.store.Opportunities() {
		if o.Stage == models.StageClosedWon || o.Stage == models.StageClosedLost {
			continue
		}
		open++
		line := fmt.Sprintf("  - %s (%s) %s", o.Name, models.StageName(o.Stage), viz.FormatBRL(o.Value))
		if o.NextAction != "" {
			line += ", próxima ação: " + o.NextAction
		}
		promptText.WriteString(line + "\n")
	}
	if open == 0 {
		promptText.WriteString("  (nenhuma)\n")
	}

	promptText.WriteString("\nPriorize os follow-ups e sugira uma mensagem curta para cada um.")

	return userPrompt("Follow-up suggestions", promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
