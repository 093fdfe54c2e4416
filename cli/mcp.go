// ABOUTME: MCP server subcommand
// ABOUTME: Registers CRM tools, resources, and prompts and serves them over stdio
package cli

import (
	"context"

	"github.com/harperreed/agentcrm/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const mcpVersion = "0.1.0"

// NewMCPServer builds the MCP server with every tool, resource, and prompt registered.
func NewMCPServer(app *App) *mcp.Server {
	clientHandlers := handlers.NewClientHandlers(app.Store)
	opportunityHandlers := handlers.NewOpportunityHandlers(app.Store, app.Engine)
	taskHandlers := handlers.NewTaskHandlers(app.Store)
	agentHandlers := handlers.NewAgentHandlers(app.Agents, app.Chat)
	queryHandlers := handlers.NewQueryHandlers(app.Store)
	vizHandlers := handlers.NewVizHandlers(app.Store, app.Logger)
	resourceHandlers := handlers.NewResourceHandlers(app.Store, app.Engine, app.Agents, app.History)
	promptHandlers := handlers.NewPromptHandlers(app.Store, app.Engine)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agentcrm",
		Version: mcpVersion,
	}, nil)

	// Clients
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_client",
		Description: "Add a new client to the CRM",
	}, clientHandlers.AddClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_clients",
		Description: "Fuzzy search clients by name or email, optionally filtered by status",
	}, clientHandlers.FindClients)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_client",
		Description: "Update an existing client's information",
	}, clientHandlers.UpdateClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_client",
		Description: "Delete a client",
	}, clientHandlers.DeleteClient)

	// Pipeline
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_opportunity",
		Description: "Create a sales opportunity, optionally linked to a client",
	}, opportunityHandlers.AddOpportunity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_opportunity",
		Description: "Edit an opportunity's name, client, value, next action, description or close date. Use move_opportunity to change its stage",
	}, opportunityHandlers.UpdateOpportunity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_opportunity",
		Description: "Move an opportunity to another pipeline stage. Moving to fechado-ganhou marks the client as won",
	}, opportunityHandlers.MoveOpportunity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_board",
		Description: "Show the kanban board: opportunities grouped by stage with totals",
	}, opportunityHandlers.PipelineBoard)

	// Tasks
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a task with optional due date and priority",
	}, taskHandlers.AddTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks ordered by due date",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as Concluída",
	}, taskHandlers.CompleteTask)

	// Agents
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_agent",
		Description: "Create an AI agent persona",
	}, agentHandlers.AddAgent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_agents",
		Description: "List AI agent personas",
	}, agentHandlers.ListAgents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_agent",
		Description: "Activate or deactivate an AI agent",
	}, agentHandlers.ToggleAgent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_agent",
		Description: "Edit an AI agent's name, prompt, model parameters or trigger events. Open chats pick up the change on their next message",
	}, agentHandlers.UpdateAgent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_agent_message",
		Description: "Send a message to an AI agent and get its reply",
	}, agentHandlers.SendAgentMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "agent_history",
		Description: "Read an agent's stored conversation",
	}, agentHandlers.AgentHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_agent_history",
		Description: "Delete an agent's conversation history",
	}, agentHandlers.ClearAgentHistory)

	// Reporting
	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard_stats",
		Description: "Dashboard metrics: conversion, revenue, monthly sales, pipeline, and clients per region",
	}, vizHandlers.DashboardStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_graph",
		Description: "Render the pipeline as GraphViz DOT source",
	}, vizHandlers.PipelineGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Universal query tool for filtering clients, opportunities, and tasks",
	}, queryHandlers.QueryCRM)

	// Resources
	for _, r := range []*mcp.Resource{
		{URI: "crm://clients", Name: "clients", Description: "All clients", MIMEType: "application/json"},
		{URI: "crm://opportunities", Name: "opportunities", Description: "All opportunities", MIMEType: "application/json"},
		{URI: "crm://pipeline", Name: "pipeline", Description: "Opportunity counts and values per stage", MIMEType: "application/json"},
		{URI: "crm://agents", Name: "agents", Description: "AI agent personas", MIMEType: "application/json"},
	} {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://clients/{id}",
		Name:        "client",
		Description: "A client with its opportunities",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://agents/{id}/history",
		Name:        "agent-history",
		Description: "An agent's chat history",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Prompts
	for _, p := range handlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App) error {
	app.Logger.Info("starting agentcrm MCP server")
	return NewMCPServer(app).Run(ctx, &mcp.StdioTransport{})
}
